package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/forest-guardian/hydroprep/internal/notification"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func printBanner() {
	banner := figure.NewFigure("HydroPrep", "small", true)
	bannercolor.Cyan(banner.String())
	fmt.Println()
}

func loadEnv() {
	for _, path := range []string{".env", "../.env"} {
		err := godotenv.Load(path)
		if err == nil {
			return
		}
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warnf("failed to load %s", path)
		}
	}
}

func recoverPanic() {
	r := recover()
	if r == nil {
		return
	}
	pc, file, line, ok := runtime.Caller(3)
	location := "Unknown location"
	if ok {
		location = fmt.Sprintf("%s:%d in %s", file, line, runtime.FuncForPC(pc).Name())
	}

	bannercolor.Red("\nPANIC: %v", r)
	bannercolor.Red("Location: %s", location)
	bannercolor.Red("Please check the inputs and try again.")

	errMessage := fmt.Sprintf("HydroPrep panic:\n\n%v\n\nLocation: %s\n\nStack trace:\n%s", r, location, debug.Stack())
	if err := notification.SendDiscordErrorNotification(errMessage); err != nil {
		bannercolor.Red("Failed to send notification: %s", err.Error())
	}
	os.Exit(2)
}

func main() {
	defer recoverPanic()
	loadEnv()
	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
