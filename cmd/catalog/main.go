package main

import "github.com/Lixing-Zhang/product-catalog/cmd/catalog/commands"

func main() {
	commands.Execute()
}
