package board

import (
	"fmt"
	"time"

	"github.com/go-ini/ini"
)

// Load reads a board config file. Missing keys fall back to defaults;
// panel resolution defaults match a bare 720p panel so a minimal file with
// just the pin names works on a devboard.
func Load(path string) (BoardConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return BoardConfig{}, fmt.Errorf("cannot load board config %q: %w", path, err)
	}
	return parse(cfg)
}

// LoadData parses board config from memory, for tests and embedded defaults.
func LoadData(data []byte) (BoardConfig, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return BoardConfig{}, fmt.Errorf("cannot parse board config: %w", err)
	}
	return parse(cfg)
}

func parse(cfg *ini.File) (BoardConfig, error) {
	var c BoardConfig

	b := cfg.Section("board")
	c.AvddName = b.Key("avdd_name").String()
	c.AvddLoad = uint(b.Key("avdd_load").MustInt(0))
	c.ResetPin = b.Key("reset_pin").String()
	c.IrqPin = b.Key("irq_pin").String()
	c.VddPin = b.Key("vdd_pin").String()
	c.IrqFlags = uint32(b.Key("irq_flags").MustInt(0))
	c.PowerOnDelay = time.Duration(b.Key("power_on_delay_us").MustInt(10000)) * time.Microsecond
	c.PowerOffDelay = time.Duration(b.Key("power_off_delay_us").MustInt(5000)) * time.Microsecond

	p := cfg.Section("panel")
	c.SwapAxis = p.Key("swap_axis").MustBool(false)
	c.PanelMaxX = p.Key("max_x").MustInt(1280)
	c.PanelMaxY = p.Key("max_y").MustInt(720)
	c.PanelMaxW = p.Key("max_w").MustInt(255)
	c.PanelMaxP = p.Key("max_p").MustInt(255)

	c.KeyMap = cfg.Section("keys").Key("key_map").Ints(",")

	fw := cfg.Section("firmware")
	c.FwName = fw.Key("fw_name").String()
	c.CfgName = fw.Key("cfg_name").String()

	c.EsdDefaultOn = cfg.Section("esd").Key("default_on").MustBool(true)

	if err := c.Validate(); err != nil {
		return BoardConfig{}, err
	}
	return c, nil
}
