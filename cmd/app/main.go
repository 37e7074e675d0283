package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"face-attendance/pkg/detector"
	"face-attendance/pkg/faceclient"
	"face-attendance/pkg/facequality"
	"face-attendance/pkg/imageutil"
	"face-attendance/pkg/location"
	"face-attendance/pkg/log"
)

const submitTimeout = 60 * time.Second

func main() {
	logger := log.NewLogger()
	_ = godotenv.Load()

	var (
		action     = flag.String("action", "check_in", "register, check_in or check_out")
		imagePath  = flag.String("image", "", "path to the captured photo")
		username   = flag.String("username", "", "username (persisted for later runs)")
		baseURL    = flag.String("base-url", envOr("API_BASE_URL", "http://localhost:8000/api/v1"), "recognition service base URL")
		sessionDir = flag.String("session-dir", defaultSessionDir(), "directory holding the session file")
	)
	flag.Parse()

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "usage: -image <photo> [-action register|check_in|check_out] [-username <name>]")
		os.Exit(2)
	}

	session := faceclient.LoadSession(*sessionDir)
	if *username != "" && *username != session.Username() {
		if err := session.SetUsername(*username); err != nil {
			logger.Fatalf("Failed to persist username: %v", err)
		}
	}
	if *action == "register" && session.Username() == "" {
		fmt.Fprintln(os.Stderr, "register requires -username")
		os.Exit(2)
	}

	frame, err := os.ReadFile(*imagePath)
	if err != nil {
		logger.Fatalf("Failed to read image: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()

	// Pre-screen locally before spending a network round trip.
	face, err := detector.FromEnv(logger).Detect(ctx, frame)
	if err != nil {
		logger.Fatalf("Detection failed: %v", err)
	}

	img, err := imageutil.Decode(frame)
	if err != nil {
		logger.Fatalf("Invalid image: %v", err)
	}
	frameW := float64(img.Bounds().Dx())
	frameH := float64(img.Bounds().Dy())

	report := facequality.Evaluate(face, frameW, frameH)
	if !report.Passed {
		fmt.Println("Capture rejected:", report.Message)
		os.Exit(1)
	}

	region := facequality.ComputeCrop(*face, frameW, frameH, facequality.DefaultPaddingRatio)
	cropped, err := imageutil.EncodeJPEG(imageutil.ApplyCrop(img, region), 90)
	if err != nil {
		logger.Fatalf("Failed to encode crop: %v", err)
	}

	session.Attach(faceclient.Capture{
		Image:    faceclient.ImageFile{Name: filepath.Base(*imagePath), Data: cropped},
		Action:   faceclient.Action(*action),
		Username: session.Username(),
	})

	client := faceclient.NewClient(*baseURL, logger)
	controller := faceclient.NewController(client, location.Env{}, logger)

	capture, _ := session.Capture()
	if err := controller.Start(ctx, capture); err != nil {
		logger.Fatalf("Failed to start submission: %v", err)
	}

	waitForResult(ctx, controller)
	session.Discard()
}

func waitForResult(ctx context.Context, controller *faceclient.Controller) {
	for {
		switch controller.State() {
		case faceclient.StateSucceeded:
			result, _ := controller.Result()
			fmt.Printf("%s recorded for %s", result.Action, result.Username)
			if result.TimePeriodThai != "" {
				fmt.Printf(" (%s)", result.TimePeriodThai)
			}
			if result.SimilarityPercent > 0 {
				fmt.Printf(", similarity %.1f%%", result.SimilarityPercent)
			}
			fmt.Println()
			return

		case faceclient.StateFailed:
			failure, _ := controller.Failure()
			fmt.Println(failure.Title)
			fmt.Println(failure.Message)
			for _, action := range failure.RecoveryActions {
				fmt.Println("  *", action.Label)
			}
			os.Exit(1)

		case faceclient.StateAcquiringLocation:
			// Location unavailable on this machine is not fatal; ask
			// the controller to proceed without it.
			if err := controller.Retry(ctx); err != nil && !errors.Is(err, faceclient.ErrLocationPending) {
				fmt.Fprintln(os.Stderr, "submission failed:", err)
				os.Exit(1)
			}
		}

		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "timed out waiting for the recognition service")
			os.Exit(1)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".face-attendance")
}
