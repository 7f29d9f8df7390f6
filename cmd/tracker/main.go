package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"studytrack-backend/internal/tracker"
	"studytrack-backend/internal/trackerclient"
)

func main() {
	app := &cli.App{
		Name:  "tracker",
		Usage: "Terminal study session tracker for the StudyTrack dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "Dashboard API base URL",
				Value:   "http://localhost:8080",
				EnvVars: []string{"TRACKER_API_URL"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "API bearer token (when the server has auth enabled)",
				EnvVars: []string{"TRACKER_API_TOKEN"},
			},
			&cli.BoolFlag{
				Name:  "no-notify",
				Usage: "Disable desktop notifications and sounds",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start a study session (or rejoin the live one) and run the timer",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "track",
						Usage: "FE, SCADA or Both",
						Value: "FE",
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "What you are studying",
					},
					&cli.IntFlag{
						Name:  "target",
						Usage: "Target session length in minutes",
					},
				},
				Action: startAction,
			},
			{
				Name:   "status",
				Usage:  "Print the live session, if any",
				Action: statusAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newEngine(c *cli.Context) *tracker.Engine {
	gw := trackerclient.New(c.String("api"), c.String("token"))

	var notifier tracker.Notifier
	if !c.Bool("no-notify") {
		notifier = &tracker.DesktopNotifier{}
	}

	return tracker.New(gw, notifier)
}

func statusAction(c *cli.Context) error {
	gw := trackerclient.New(c.String("api"), c.String("token"))

	sess, err := gw.LoadActive(c.Context)
	if err != nil {
		return err
	}
	if sess == nil {
		pterm.Info.Println("No session in progress")
		return nil
	}

	topic := "-"
	if sess.Topic != nil {
		topic = *sess.Topic
	}
	pterm.DefaultSection.Printf("Session #%d", sess.ID)
	pterm.Printf("Track:  %s\n", sess.Track)
	pterm.Printf("Topic:  %s\n", topic)
	pterm.Printf("Status: %s\n", sess.Status)
	pterm.Printf("Breaks: %d\n", sess.BreaksTaken)
	return nil
}

func startAction(c *cli.Context) error {
	engine := newEngine(c)
	defer engine.Close()

	ctx := context.Background()

	sess, err := engine.Attach(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach the dashboard API: %w", err)
	}

	if sess != nil {
		pterm.Info.Printf("Rejoined %s session #%d\n", sess.Status, sess.ID)
	} else {
		track := c.String("track")
		var topic *string
		if t := c.String("topic"); t != "" {
			topic = &t
		}
		var target *int
		if m := c.Int("target"); m > 0 {
			target = &m
		}

		sess, err = engine.Start(ctx, track, topic, target)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Started %s session #%d\n", track, sess.ID)
	}

	engine.OnTick = renderTimer(engine)
	renderTimer(engine)(engine.Elapsed())

	pterm.Println()
	pterm.Println("Commands: pause | resume | break | note <text> | results <questions> <accuracy> | stop")

	// Ctrl-C leaves the session running on the server for a later rejoin.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		engine.Close()
		pterm.Println()
		pterm.Info.Println("Detached. The session keeps running; rejoin with 'tracker start'.")
		os.Exit(0)
	}()

	return commandLoop(ctx, engine)
}

func commandLoop(ctx context.Context, engine *tracker.Engine) error {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "pause":
			if err := engine.Pause(ctx); err != nil {
				pterm.Error.Println(err)
				continue
			}
			pterm.Info.Println("Paused")
		case "resume":
			if err := engine.Resume(ctx); err != nil {
				pterm.Error.Println(err)
				continue
			}
			pterm.Info.Println("Resumed")
		case "break":
			if err := engine.TakeBreak(ctx); err != nil {
				pterm.Error.Println(err)
				continue
			}
			pterm.Info.Printf("Break started, auto-resume in %s\n", tracker.BreakDuration)
		case "note":
			engine.SetNotes(rest)
		case "results":
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				pterm.Warning.Println("Usage: results <questions> <accuracy>")
				continue
			}
			questions, err1 := strconv.Atoi(fields[0])
			accuracy, err2 := strconv.ParseFloat(fields[1], 64)
			if err1 != nil || err2 != nil {
				pterm.Warning.Println("Usage: results <questions> <accuracy>")
				continue
			}
			engine.SetResults(questions, accuracy)
			pterm.Info.Printf("Recorded %d questions at %.0f%%\n", questions, accuracy)
		case "stop", "quit":
			hours, err := engine.Stop(ctx)
			if err != nil {
				return err
			}
			pterm.Success.Printf("Session complete: %.2f hours logged\n", hours)
			return nil
		default:
			pterm.Warning.Printf("Unknown command %q\n", cmd)
		}
	}

	return scanner.Err()
}

func renderTimer(engine *tracker.Engine) func(int) {
	return func(elapsed int) {
		sess := engine.Session()
		if sess == nil {
			return
		}

		line := fmt.Sprintf("⏱  %s  [%s]", tracker.FormatDuration(elapsed), sess.Track)
		if sess.TargetMinutes != nil {
			line += fmt.Sprintf("  %.0f%% of %dm", tracker.ProgressPercent(elapsed, sess.TargetMinutes), *sess.TargetMinutes)
		}
		pterm.Printo(line)
	}
}
