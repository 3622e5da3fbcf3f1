package main

import (
	"github.com/kikorobot/storefront/internal/app"
	"github.com/kikorobot/storefront/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
