// Imprime el hash bcrypt de una contraseña, para sembrar usuarios a mano.
// Uso: go run cmd/genhash/main.go <password>
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	pass := "cambiar-en-produccion"
	if len(os.Args) > 1 {
		pass = os.Args[1]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pass), 12)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(h))
}
