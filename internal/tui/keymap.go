package tui

import (
	"strings"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig overrides selected default bindings. Blank fields keep the default key.
type KeyConfig struct {
	MoveAssetUp   string
	MoveAssetDown string
	CopyReport    string
	NextView      string
	CycleCategory string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit          key.Binding
	reload        key.Binding
	toggleHelp    key.Binding
	up            key.Binding
	down          key.Binding
	moveAssetUp   key.Binding
	moveAssetDown key.Binding
	nextView      key.Binding
	prevView      key.Binding
	nextContract  key.Binding
	prevContract  key.Binding
	copyReport    key.Binding
	cycleCategory key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "previous asset")),
		down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next asset")),
		moveAssetUp:   key.NewBinding(key.WithKeys("K", "shift+k"), key.WithHelp("K", "move asset up")),
		moveAssetDown: key.NewBinding(key.WithKeys("J", "shift+j"), key.WithHelp("J", "move asset down")),
		nextView:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		prevView:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous view")),
		nextContract:  key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next contract")),
		prevContract:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous contract")),
		copyReport:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy report")),
		cycleCategory: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "pivot category")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.moveAssetUp, cfg.MoveAssetUp, "K", "move asset up")
	configureBinding(&k.moveAssetDown, cfg.MoveAssetDown, "J", "move asset down")
	configureBinding(&k.copyReport, cfg.CopyReport, "y", "copy report")
	configureBinding(&k.nextView, cfg.NextView, "tab", "next view")
	configureBinding(&k.cycleCategory, cfg.CycleCategory, "c", "pivot category")
}

// configureBinding rebinds b to raw, or fallback when raw is blank.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns one configured key into matcher keys and a help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	switch {
	case strings.EqualFold(raw, "space"):
		return []string{" ", "space"}, "space"
	case utf8.RuneCountInString(raw) == 1:
		lower := strings.ToLower(raw)
		if raw != lower {
			return []string{raw, "shift+" + lower}, raw
		}
		return []string{raw}, raw
	default:
		return []string{strings.ToLower(raw)}, raw
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.up, k.down, k.moveAssetUp, k.moveAssetDown, k.nextView, k.copyReport, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.moveAssetUp, k.moveAssetDown},
		{k.nextView, k.prevView, k.nextContract, k.prevContract, k.cycleCategory},
		{k.copyReport, k.reload, k.toggleHelp, k.quit},
	}
}
