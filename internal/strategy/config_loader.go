package strategy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	TypeMeanReversion  = "mean_reversion"
	TypeLiquiditySweep = "liquidity_sweep"
	TypePairTrading    = "pair_trading"
)

// Config represents a strategy configuration entry in YAML.
type Config struct {
	ID         string    `yaml:"id"`
	Type       string    `yaml:"type"`
	Symbol     string    `yaml:"symbol"` // optional scope; for pair_trading the A leg
	Pair       string    `yaml:"pair"`   // pair_trading B leg
	Parameters yaml.Node `yaml:"parameters"`
	IsActive   bool      `yaml:"is_active"`
}

// ConfigFile represents the top-level YAML structure.
type ConfigFile struct {
	Strategies []Config `yaml:"strategies"`
}

// LoadConfig reads strategies from a YAML file. A missing file is not an
// error; it yields no entries.
func LoadConfig(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return file.Strategies, nil
}

// Build registers active strategies from configs on e. When no entry is
// active, a default MeanReversion over every symbol is added.
func Build(e *Engine, configs []Config) error {
	for _, c := range configs {
		if !c.IsActive {
			continue
		}
		s, err := build(c)
		if err != nil {
			return fmt.Errorf("strategy %q: %w", c.ID, err)
		}
		scope := c.Symbol
		if c.Type == TypePairTrading {
			scope = ""
		}
		e.Add(s, scope)
		e.log.Info().Str("strategy", s.Name()).Str("id", s.ID()).Str("symbol", scope).Msg("loaded strategy")
	}
	if e.Len() == 0 {
		e.Add(NewMeanReversion("", DefaultMeanReversionParams()), "")
		e.log.Info().Msg("no strategies configured; using default mean reversion")
	}
	return nil
}

func build(c Config) (Strategy, error) {
	switch c.Type {
	case TypeMeanReversion:
		p := DefaultMeanReversionParams()
		if err := decodeParams(c.Parameters, &p); err != nil {
			return nil, err
		}
		return NewMeanReversion(c.ID, p), nil

	case TypeLiquiditySweep:
		p := DefaultLiquiditySweepParams()
		if err := decodeParams(c.Parameters, &p); err != nil {
			return nil, err
		}
		return NewLiquiditySweep(c.ID, p), nil

	case TypePairTrading:
		if c.Symbol == "" || c.Pair == "" || c.Symbol == c.Pair {
			return nil, errors.New("pair_trading needs distinct symbol and pair")
		}
		p := DefaultPairTradingParams()
		if err := decodeParams(c.Parameters, &p); err != nil {
			return nil, err
		}
		return NewPairTrading(c.ID, c.Symbol, c.Pair, p), nil

	default:
		return nil, fmt.Errorf("unknown strategy type %q", c.Type)
	}
}

func decodeParams(n yaml.Node, out any) error {
	if n.Kind == 0 {
		return nil
	}
	if err := n.Decode(out); err != nil {
		return fmt.Errorf("parameters: %w", err)
	}
	return nil
}
