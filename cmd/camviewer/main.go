// Package main opens a viewer for every camera on a robot in a simulated scene.
//
// Commands are read from stdin, one per line: "q" quits and "c" saves the current frame of
// every viewer as image<N>.png.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/osbertngok/openrave/config"
	"github.com/osbertngok/openrave/display"
	"github.com/osbertngok/openrave/display/web"
	"github.com/osbertngok/openrave/logging"
	"github.com/osbertngok/openrave/scene"
	"github.com/osbertngok/openrave/sim/fake"
)

var logger = logging.NewDebugLogger("camviewer")

// Arguments for the command.
type Arguments struct {
	Scene     string `flag:"scene,usage=scene file to load"`
	RobotName string `flag:"robotname,usage=robot to view (default first robot)"`
	Config    string `flag:"config,usage=JSON config file"`
	Port      int    `flag:"port,usage=web display port"`
	Headless  bool   `flag:"headless,usage=keep frames in memory instead of serving them"`
	Output    string `flag:"output,usage=directory for captured images"`
	Debug     bool   `flag:"debug"`

	// DebugScene logs scene loading at debug level without turning on debug output elsewhere.
	DebugScene bool `flag:"debug-scene,usage=debug logging while the scene loads"`
}

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	return runViewer(ctx, argsParsed, os.Stdin, logger)
}

// loadConfig reads the config file, if any, lets OPENRAVE_* variables fill what it leaves empty
// and applies the command line on top.
func loadConfig(ctx context.Context, argsParsed Arguments, logger logging.Logger) (*config.Config, error) {
	cfg := config.Default()
	if argsParsed.Config != "" {
		var err error
		if cfg, err = config.Read(ctx, argsParsed.Config, logger); err != nil {
			return nil, err
		}
		cfg.Environment = cfg.Environment.Merge(config.EnvironmentFromEnv())
	}
	if argsParsed.Scene != "" {
		cfg.Viewer.SceneFile = argsParsed.Scene
	}
	if argsParsed.RobotName != "" {
		cfg.Viewer.RobotName = argsParsed.RobotName
	}
	if argsParsed.Port != 0 {
		cfg.Viewer.Port = argsParsed.Port
	}
	if argsParsed.Headless {
		cfg.Viewer.Headless = true
	}
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type closableDisplay interface {
	display.Display
	Close() error
}

func openDisplay(cfg *config.Config, logger logging.Logger) (closableDisplay, error) {
	if cfg.Viewer.Headless {
		return display.NewHeadless(), nil
	}
	server := web.NewServer(logger.Sublogger("web"))
	addr, err := server.Start(fmt.Sprintf(":%d", cfg.Viewer.Port))
	if err != nil {
		return nil, err
	}
	logger.Infof("serving camera windows on http://%s", addr)
	return server, nil
}

func runViewer(ctx context.Context, argsParsed Arguments, commands io.Reader, logger logging.Logger) (err error) {
	cfg, err := loadConfig(ctx, argsParsed, logger)
	if err != nil {
		return err
	}
	if err := config.InitLoggingSettings(logger, argsParsed.Debug, cfg); err != nil {
		return err
	}
	if cfg.LogFile != "" {
		fileAppender := logging.NewFileAppender(cfg.LogFile)
		logger.AddAppender(fileAppender)
		defer func() {
			err = multierr.Combine(err, fileAppender.Close())
		}()
	}

	rt, err := fake.NewRuntime(cfg.Environment, nil, logger.Sublogger("sim"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, rt.Destroy(context.Background()))
	}()
	env, err := rt.NewEnvironment(ctx)
	if err != nil {
		return err
	}

	disp, err := openDisplay(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, disp.Close())
	}()

	sceneCtx := ctx
	if argsParsed.DebugScene {
		sceneCtx = logging.WithDebug(ctx, "scene")
	}
	s, err := scene.New(sceneCtx, env, disp, scene.Options{
		SceneFile:     cfg.Viewer.SceneFile,
		RobotName:     cfg.Viewer.RobotName,
		SettleDelay:   cfg.Viewer.SettleDelay,
		PollPeriod:    cfg.Viewer.PollPeriod,
		FallbackTitle: cfg.Viewer.FallbackTitle,
	}, logger.Sublogger("scene"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, s.Close(context.Background()))
	}()
	goutils.ContextMainReadyFunc(ctx)()

	outputDir := argsParsed.Output
	if outputDir == "" {
		outputDir = "."
	}
	return handleCommands(ctx, s, commands, outputDir, logger)
}

func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	goutils.PanicCapturingGo(func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			case lines <- strings.TrimSpace(scanner.Text()):
			}
		}
	})
	return lines
}

// handleCommands runs until "q" or the end of ctx.
func handleCommands(ctx context.Context, s *scene.Scene, commands io.Reader, outputDir string, logger logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := readLines(ctx, commands)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// stdin closed, keep showing frames until interrupted
				lines = nil
				continue
			}
			switch line {
			case "q":
				return nil
			case "c":
				written, err := s.CaptureAll(outputDir)
				if err != nil {
					logger.Errorw("capture failed", "error", err)
				}
				logger.Infof("captured %d images", len(written))
			case "":
			default:
				logger.Warnf("unknown command %q (q quits, c captures)", line)
			}
		}
	}
}
