package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	RazonSocial string  `json:"razon_social" validate:"required,min=2"`
	RUC         string  `json:"ruc"          validate:"required,min=8,max=15"`
	Direccion   *string `json:"direccion"`
	Email       *string `json:"email"    validate:"omitempty,email"`
	Telefono    *string `json:"telefono"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID          string  `json:"id"`
	RazonSocial string  `json:"razon_social"`
	RUC         string  `json:"ruc"`
	Direccion   *string `json:"direccion"`
	Email       *string `json:"email"`
	Telefono    *string `json:"telefono"`
	Activo      bool    `json:"activo"`
}
