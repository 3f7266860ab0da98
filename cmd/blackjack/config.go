package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// ConfigCmd prints the configuration after defaults are applied
type ConfigCmd struct{}

func (c *ConfigCmd) Run(g *Globals) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(cfg, f.Body())
	if _, err := os.Stdout.Write(f.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
