package main

import "github.com/okuma-coupler/bridge/internal/app"

func main() {
	app.New().Run()
}
