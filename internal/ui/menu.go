package ui

import (
	"context"
	"fmt"

	"github.com/forest-guardian/hydroprep/internal/delivery"
	"github.com/forest-guardian/hydroprep/internal/notification"
	log "github.com/sirupsen/logrus"
)

type menuOption struct {
	title   string
	handler func()
}

func runStage(ctx context.Context, name string, stage delivery.StageFunc) {
	artifacts, err := stage(ctx)
	if err != nil {
		msg := fmt.Sprintf("%s failed: %s", name, err.Error())
		PrintError(msg)
		notifyError(msg)
		return
	}
	PrintSuccess(fmt.Sprintf("%s finished, %d files written.", name, len(artifacts)))
}

func notifyError(msg string) {
	if err := notification.SendDiscordErrorNotification(msg); err != nil {
		log.WithError(err).Warn("failed to send error notification")
	}
}

// ShowMenu displays the main menu and handles user input until the user
// exits or ctx is cancelled.
func ShowMenu(ctx context.Context) {
	exit := false
	menuOptions := []menuOption{
		{"Run the full pipeline", func() {
			manifest, err := delivery.RunAll(ctx)
			if err != nil {
				PrintError(err.Error())
				notifyError(err.Error())
				return
			}
			PrintSuccess(fmt.Sprintf("Run %s finished, %d files written.", manifest.RunID, len(manifest.Rows)))
		}},
		{"Classify land use and land cover", func() { runStage(ctx, "LULC classification", delivery.RunLULC) }},
		{"Compute interception maps", func() { runStage(ctx, "Interception", delivery.RunInterception) }},
		{"Convert generated maps to PCRaster", func() { runStage(ctx, "Conversion", delivery.RunConversion) }},
		{"Generate parameter maps", func() { runStage(ctx, "Parameter maps", delivery.RunParameterMaps) }},
		{"View the list of inputs", ListInputs},
		{"View the list of outputs", ListOutputs},
		{"Exit the application", func() { fmt.Println("Exiting..."); exit = true }},
	}

	for !exit && ctx.Err() == nil {
		info.Println("===================")
		for i, opt := range menuOptions {
			info.Printf("%d. %s\n", i+1, opt.title)
		}

		choice, err := ReadInt("Please enter your choice: ", 1, len(menuOptions))
		if err != nil {
			PrintError(err.Error())
			continue
		}

		menuOptions[choice-1].handler()
	}
}
