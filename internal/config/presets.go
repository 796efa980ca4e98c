package config

import "sort"

var Presets = map[string]map[string]*GeneratorConfig{
	"chain": {
		"default": {Kind: "chain", Nx: 3, Span: 2, Q: 1},
		"loaded":  {Kind: "chain", Nx: 11, Span: 10, Q: 1, Load: -0.1},
		"slack":   {Kind: "chain", Nx: 21, Span: 10, Q: 0.2, Load: -0.1},
	},
	"cablenet": {
		"flat":    {Kind: "cablenet", Nx: 10, Ny: 10, Span: 10, Q: 1},
		"sagging": {Kind: "cablenet", Nx: 10, Ny: 10, Span: 10, Q: 1, Load: -0.1},
		"edged":   {Kind: "cablenet", Nx: 12, Ny: 8, Span: 10, Q: 1, BoundaryQ: 5, Load: -0.1},
		"fine":    {Kind: "cablenet", Nx: 60, Ny: 60, Span: 20, Q: 1, Load: -0.01},
	},
	"hypar": {
		"default": {Kind: "hypar", Nx: 12, Ny: 12, Span: 10, Q: 1, Rise: 3},
		"steep":   {Kind: "hypar", Nx: 16, Ny: 16, Span: 10, Q: 1, Rise: 6, Load: -0.02},
	},
	"arch": {
		"default": {Kind: "arch", Nx: 21, Span: 10, Q: -1, Load: -0.1},
		"shallow": {Kind: "arch", Nx: 21, Span: 10, Q: -4, Load: -0.1},
	},
	"saddle": {
		"default": {Kind: "saddle", Nx: 15, Ny: 15, Span: 10, Q: 1, Rise: 2},
		"loaded":  {Kind: "saddle", Nx: 15, Ny: 15, Span: 10, Q: 1, Rise: 2, Load: -0.05},
	},
}

func GetPreset(kind, preset string) *GeneratorConfig {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	g, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	cp := *g
	return &cp
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListKinds() []string {
	kinds := make([]string, 0, len(Presets))
	for k := range Presets {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
