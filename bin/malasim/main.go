package main

import (
	"flag"
	"log"
	"time"

	malasim "github.com/maciekmm/malasim-go"
)

func main() {
	loggerType := flag.String("logger", "csv", "output reporter type (csv|sqlite)")
	outputPath := flag.String("output", "malasim_output", "output path (without extension)")
	seedNum := flag.Int64("seed", time.Now().UTC().UnixNano(), "random seed. Uses Unix time in nanoseconds as default")
	flag.Parse()

	configPath := flag.Arg(0)
	if configPath == "" {
		log.Fatal("usage: malasim [flags] <config.toml>")
	}

	cfg, err := malasim.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("loading config: %s", err)
	}

	model, err := malasim.BuildModel(cfg, *seedNum)
	if err != nil {
		log.Fatalf("building model from config: %s", err)
	}

	switch *loggerType {
	case "csv":
		model.Reporters = append(model.Reporters, malasim.NewCSVReporter(*outputPath+".csv"))
	case "sqlite":
		model.Reporters = append(model.Reporters, malasim.NewSQLiteReporter(*outputPath+".db"))
	default:
		log.Fatalf("%s is not a valid reporter type (csv|sqlite)", *loggerType)
	}

	start := time.Now()
	if err := model.Run(); err != nil {
		log.Fatalf("run failed: %s", err)
	}
	log.Printf("completed run in %s", time.Since(start))
}
