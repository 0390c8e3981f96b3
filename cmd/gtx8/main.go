package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/Rettrjo/gtx8/internal/pkg/board"
	busi2c "github.com/Rettrjo/gtx8/internal/pkg/bus/i2c"
	"github.com/Rettrjo/gtx8/internal/pkg/core"
	"github.com/Rettrjo/gtx8/internal/pkg/logger"
	"github.com/Rettrjo/gtx8/internal/pkg/regmap"
	"github.com/Rettrjo/gtx8/internal/pkg/sink/uinput"
)

var log = logger.GetLogger()

//go:embed board.config
var defaultBoardConfig []byte

var (
	configPath = flag.String("config", "./config/board.config", "board configuration file, built-in defaults are used when missing")
	icName     = flag.String("ic", "normandy", "chip generation: normandy or yellowstone")
	busName    = flag.String("bus", "", "i2c bus name or number, first available when empty")
	devAddr    = flag.Int("addr", 0x5d, "i2c target address")
	devName    = flag.String("name", "gtx8-touchscreen", "uinput device name")
	silent     = flag.Bool("silent", false, "no output logging, best performance")
	logLevel   = flag.Int("loglevel", 2, "logging level (0-3), each level enables additional information class")
)

func init() {
	flag.Parse()
}

func loadBoardConfig(path string) (board.BoardConfig, error) {
	if _, err := os.Stat(path); err != nil {
		log.Info(fmt.Sprintf("config %s not found, using built-in defaults", path), logger.Info)
		return board.LoadData(defaultBoardConfig)
	}
	return board.Load(path)
}

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, dev *core.Device, cancel func()) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		switch sig {
		case syscall.SIGUSR1:
			if err := dev.Suspend(context.Background()); err != nil {
				log.Info(fmt.Sprintf("suspend failed: %v", err), logger.Warning)
			}
			continue
		case syscall.SIGUSR2:
			if err := dev.Resume(context.Background()); err != nil {
				log.Info(fmt.Sprintf("resume failed: %v", err), logger.Warning)
			}
			continue
		}

		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		counter++
	}
}

func main() {
	cfg, err := loadBoardConfig(*configPath)
	if err != nil {
		log.Info(fmt.Sprintf("failed to load board config: %v", err), logger.Error)
		os.Exit(1)
	}

	var ic regmap.ICType
	switch *icName {
	case "normandy":
		ic = regmap.Normandy
	case "yellowstone":
		ic = regmap.Yellowstone
	default:
		log.Info(fmt.Sprintf("unknown ic %q", *icName), logger.Error)
		os.Exit(1)
	}

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	ctx, cancel := context.WithCancel(context.Background())

	wg := sync.WaitGroup{}

	go func() {
		for data := range logger.Messages {
			if *silent {
				continue
			}
			var entry struct {
				Level int `json:"level"`
			}
			if err := json.Unmarshal(data, &entry); err == nil && entry.Level > *logLevel {
				continue
			}
			fmt.Printf("%s\n", string(data))
		}
	}()

	if _, err := host.Init(); err != nil {
		log.Info(fmt.Sprintf("host init failed: %v", err), logger.Error)
		os.Exit(1)
	}

	b, err := i2creg.Open(*busName)
	if err != nil {
		log.Info(fmt.Sprintf("failed to open i2c bus: %v", err), logger.Error)
		os.Exit(1)
	}
	defer b.Close()

	platform, err := newPlatform(cfg)
	if err != nil {
		log.Info(fmt.Sprintf("platform setup failed: %v", err), logger.Error)
		os.Exit(1)
	}
	defer platform.Close()

	snk, err := uinput.New(*devName, cfg)
	if err != nil {
		log.Info(fmt.Sprintf("failed to create uinput device: %v", err), logger.Error)
		os.Exit(1)
	}
	defer snk.Close()

	dev, err := core.Attach(ctx, cfg, ic, busi2c.New(b, uint16(*devAddr)), platform, snk)
	if err != nil {
		log.Info(fmt.Sprintf("failed to attach device: %v", err), logger.Error)
		os.Exit(1)
	}

	ver := dev.Version()
	if ver.Valid {
		log.Info(fmt.Sprintf("attached %s, PID: %s, sensor: %d", ic, ver.PID, ver.SensorID), logger.Info)
	}

	wg.Add(1)
	go handleSigs(&wg, sigs, dev, cancel)

	<-ctx.Done()

	if err := dev.Close(context.Background()); err != nil {
		log.Info(fmt.Sprintf("detach failed: %v", err), logger.Warning)
	}

	close(sigs)
	wg.Wait()
	close(logger.Messages)
}
