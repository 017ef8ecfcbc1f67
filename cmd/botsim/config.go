/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"os"

	"github.com/frc6135/botcore/oi"
	"github.com/frc6135/botcore/sio"

	"github.com/jsccast/yaml"
)

// Config is the robot configuration file.
//
//	routine: place-cube-middle
//	diagnostics: "*/5 * * * * * *"
//	target: {offset: 12, visible: true}
//	libraries: ["file://libs/stick.js"]
//	controls:
//	  autoAlign: driver.b
//	  conditions:
//	    debug: "button('driver.start') && button('driver.back')"
type Config struct {
	Routine     string       `yaml:"routine"`
	Diagnostics string       `yaml:"diagnostics"`
	Target      *Target      `yaml:"target"`
	Libraries   []string     `yaml:"libraries"`
	Controls    *oi.Controls `yaml:"controls"`
}

// Target places the simulated vision target.
type Target struct {
	Offset  float64 `yaml:"offset"`
	Visible bool    `yaml:"visible"`
}

// DefaultConfig is the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Diagnostics: sio.DefaultDiagnosticsSchedule,
		Controls:    oi.DefaultControls(),
	}
}

// ParseConfig overlays the YAML on DefaultConfig.
func ParseConfig(bs []byte) (*Config, error) {
	c := DefaultConfig()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, err
	}
	if c.Controls == nil {
		c.Controls = oi.DefaultControls()
	}
	if err := c.Controls.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadConfig reads the named file, or returns DefaultConfig if the
// filename is empty.
func ReadConfig(filename string) (*Config, error) {
	if filename == "" {
		return DefaultConfig(), nil
	}
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	c, err := ParseConfig(bs)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	return c, nil
}
