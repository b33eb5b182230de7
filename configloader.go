/*
 * MIT License
 *
 * Copyright (c) 2026 logshipper authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logshipper

import (
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a Config from path through viper, starting from
// DefaultConfig so any option the file omits keeps its documented
// default. Flag parsing and other CLI wiring are left to the host
// process; this is the one piece of config plumbing worth shipping,
// since a host process needs some way to get a Config off disk.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return cfg, ErrorConfigInvalid.Error(err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, ErrorConfigInvalid.Error(err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path as YAML using its yaml struct tags, the
// counterpart to LoadConfig for a host that builds a Config in code (e.g.
// from flags) and wants to persist it for the next restart.
func SaveConfig(path string, cfg Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return ErrorConfigInvalid.Error(err)
	}

	if err = os.WriteFile(path, out, 0o600); err != nil {
		return ErrorConfigInvalid.Error(err)
	}

	return nil
}
