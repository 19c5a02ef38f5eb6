package main

import (
	"log"

	corecmd "github.com/m3rciful/fishbot/core/cmd"
	"github.com/m3rciful/fishbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		DotEnvFiles:       []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: bot.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
