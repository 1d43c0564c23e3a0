package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/medialibertaire/media-libertaire-api/api/handlers"

	"go.uber.org/zap"

	"github.com/medialibertaire/media-libertaire-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	port := a.Config.Port
	zap.S().Infow("media-libertaire-api is up and running",
		"port", port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", port), a.Router))
}
