// cpf - compact prompt notation for agent instructions
package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/HartBrook/cpf/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
