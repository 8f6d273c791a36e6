package main

import (
	"github.com/FreerikH/popcorn/internal/app"
	"github.com/FreerikH/popcorn/internal/config"
)

func main() {
	app.Go(config.Load())
}
