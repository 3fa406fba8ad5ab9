// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package feature

import (
	"strings"
	"testing"
)

func TestCheckStructure(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  string // substring of any issue, empty for valid
	}{
		{
			name: "valid single kernel",
			manifest: Manifest{
				ID:     "fx.blur",
				Domain: DomainClip,
				Inputs: []PortDefinition{{Name: "input", Kind: PortImage}},
				Kernel: "blur_h",
			},
		},
		{
			name:     "missing id",
			manifest: Manifest{Domain: DomainClip, Kernel: "blit"},
			wantErr:  "missing id",
		},
		{
			name:     "missing domain",
			manifest: Manifest{ID: "fx.x", Kernel: "blit"},
			wantErr:  "missing domain",
		},
		{
			name:     "unknown domain",
			manifest: Manifest{ID: "fx.x", Domain: "weird", Kernel: "blit"},
			wantErr:  "unknown domain",
		},
		{
			name:     "no kernel and no passes",
			manifest: Manifest{ID: "fx.x", Domain: DomainScene},
			wantErr:  "neither kernel nor passes",
		},
		{
			name: "kernel and passes are exclusive",
			manifest: Manifest{
				ID: "fx.x", Domain: DomainScene, Kernel: "blit",
				Passes: []FeaturePass{{Name: "p", Kernel: "blit", Output: "out"}},
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "clip domain rejects foreign port",
			manifest: Manifest{
				ID: "fx.x", Domain: DomainClip, Kernel: "blit",
				Inputs: []PortDefinition{{Name: "sceneDepth", Kind: PortImage}},
			},
			wantErr: "not available to clip-domain",
		},
		{
			name: "clip domain allows face mask port",
			manifest: Manifest{
				ID: "fx.x", Domain: DomainClip, Kernel: "blit",
				Inputs: []PortDefinition{
					{Name: "input", Kind: PortImage},
					{Name: "faceMask", Kind: PortImage, Optional: true},
				},
			},
		},
		{
			name: "scene domain allows arbitrary ports",
			manifest: Manifest{
				ID: "fx.x", Domain: DomainScene, Kernel: "blit",
				Inputs: []PortDefinition{{Name: "sceneDepth", Kind: PortImage}},
			},
		},
		{
			name: "duplicate port",
			manifest: Manifest{
				ID: "fx.x", Domain: DomainScene, Kernel: "blit",
				Inputs: []PortDefinition{{Name: "a"}, {Name: "a"}},
			},
			wantErr: "duplicate port",
		},
		{
			name: "duplicate pass output",
			manifest: Manifest{
				ID: "fx.x", Domain: DomainScene,
				Passes: []FeaturePass{
					{Name: "p1", Kernel: "blit", Output: "out"},
					{Name: "p2", Kernel: "blit", Output: "out"},
				},
			},
			wantErr: "duplicate pass output",
		},
		{
			name: "bad tier",
			manifest: Manifest{
				ID: "fx.x", Domain: DomainScene,
				Passes: []FeaturePass{{Name: "p", Kernel: "blit", Output: "out", Tier: "tiny"}},
			},
			wantErr: "invalid tier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.manifest.checkStructure()
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Errorf("checkStructure() = %v, want clean", errs)
				}
				return
			}
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.wantErr) {
					return
				}
			}
			t.Errorf("checkStructure() = %v, want issue containing %q", errs, tt.wantErr)
		})
	}
}

func TestEffectivePassesShorthand(t *testing.T) {
	m := Manifest{
		ID:     "fx.tint",
		Domain: DomainClip,
		Inputs: []PortDefinition{{Name: "input", Kind: PortImage}},
		Kernel: "color_adjust",
	}
	passes := m.EffectivePasses()
	if len(passes) != 1 {
		t.Fatalf("EffectivePasses() returned %d passes, want 1", len(passes))
	}
	p := passes[0]
	if p.Kernel != "color_adjust" || p.Output != "out" {
		t.Errorf("implicit pass = %+v", p)
	}
	if len(p.Inputs) != 1 || p.Inputs[0] != "input" {
		t.Errorf("implicit pass inputs = %v, want declared ports in order", p.Inputs)
	}
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		wantNil bool
		wantErr bool
	}{
		{"", true, false},
		{"full", false, false},
		{"half", false, false},
		{"quarter", false, false},
		{"640x360", false, false},
		{"0x360", false, true},
		{"tiny", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tier, err := parseTier(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTier(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			}
			if err == nil && (tier == nil) != tt.wantNil {
				t.Errorf("parseTier(%q) nil = %t, want %t", tt.in, tier == nil, tt.wantNil)
			}
		})
	}

	tier, err := parseTier("640x360")
	if err != nil {
		t.Fatal(err)
	}
	if w, h := tier.Resolve(1920, 1080); w != 640 || h != 360 {
		t.Errorf("fixed tier resolves to %dx%d, want 640x360", w, h)
	}
}
