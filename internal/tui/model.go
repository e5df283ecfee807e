// Package tui renders the maintenance dashboard as a terminal program.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/hylla/sudsboard/internal/coverage"
	"github.com/hylla/sudsboard/internal/domain"
)

// actionTimeout bounds one mutation issued from the terminal.
const actionTimeout = 10 * time.Second

// Source is the live dataset the dashboard reads from.
type Source interface {
	Dataset() coverage.Dataset
	ResolveAsset(assetID string) ([]coverage.ResolvedActivity, error)
	ContractView(contractID string) (coverage.ContractView, error)
	Pivot(opts coverage.PivotOptions) coverage.Pivot
	Changes() <-chan struct{}
	Err() error
}

// Service carries the mutations available from the dashboard.
type Service interface {
	MoveAsset(ctx context.Context, id string, d domain.Direction) (bool, error)
}

// viewMode identifies the active dashboard page.
type viewMode int

// viewAssets and related constants define the page cycle order.
const (
	viewAssets viewMode = iota
	viewContract
	viewPivot
	viewCount
)

// label returns the tab label of one page.
func (v viewMode) label() string {
	switch v {
	case viewContract:
		return "contract"
	case viewPivot:
		return "pivot"
	default:
		return "assets"
	}
}

// Model is the dashboard state.
type Model struct {
	src Source
	svc Service

	ready  bool
	width  int
	height int
	err    error
	status string

	help  help.Model
	keys  keyMap
	title string
	copy  func(string) error
	md    *reportRenderer

	view             viewMode
	dataset          coverage.Dataset
	selectedAsset    int
	focusAssetID     string
	selectedContract int
	pivotCategory    int
}

// loadedMsg carries a fresh dataset snapshot.
type loadedMsg struct {
	dataset coverage.Dataset
	stale   error
}

// changedMsg signals that the source applied a new snapshot.
type changedMsg struct{}

// assetMovedMsg reports the result of one reorder.
type assetMovedMsg struct {
	id    string
	moved bool
	err   error
}

// reportCopiedMsg reports the result of one clipboard write.
type reportCopiedMsg struct {
	contract string
	err      error
}

// NewModel constructs the dashboard over src, issuing mutations through svc.
func NewModel(src Source, svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		src:    src,
		svc:    svc,
		status: "loading...",
		help:   h,
		keys:   newKeyMap(),
		title:  "sudsboard",
		copy:   clipboard.WriteAll,
		md:     &reportRenderer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init loads the first snapshot and starts listening for changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadData, m.waitForChange())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(msg.Width)
		return m, nil

	case loadedMsg:
		m.err = nil
		m.dataset = msg.dataset
		m.clampSelection()
		if m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		if msg.stale != nil {
			m.status = "live updates stopped: " + msg.stale.Error()
		}
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.loadData, m.waitForChange())

	case assetMovedMsg:
		switch {
		case msg.err != nil:
			m.status = "move failed: " + msg.err.Error()
			return m, nil
		case !msg.moved:
			m.status = "asset already at the edge"
			return m, nil
		}
		m.focusAssetID = msg.id
		m.status = "asset moved"
		return m, m.loadData

	case reportCopiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied report for " + msg.contract
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleKey routes one key press.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.nextView):
		m.view = (m.view + 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.prevView):
		m.view = (m.view + viewCount - 1) % viewCount
		return m, nil
	case key.Matches(msg, m.keys.up):
		m.selectedAsset = clamp(m.selectedAsset-1, 0, len(m.dataset.Assets)-1)
		return m, nil
	case key.Matches(msg, m.keys.down):
		m.selectedAsset = clamp(m.selectedAsset+1, 0, len(m.dataset.Assets)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveAssetUp):
		return m, m.moveAsset(domain.DirectionUp)
	case key.Matches(msg, m.keys.moveAssetDown):
		return m, m.moveAsset(domain.DirectionDown)
	case key.Matches(msg, m.keys.nextContract):
		m.selectedContract = wrap(m.selectedContract+1, len(m.dataset.Contracts))
		return m, nil
	case key.Matches(msg, m.keys.prevContract):
		m.selectedContract = wrap(m.selectedContract-1, len(m.dataset.Contracts))
		return m, nil
	case key.Matches(msg, m.keys.cycleCategory):
		m.pivotCategory = wrap(m.pivotCategory+1, len(m.dataset.Taxonomy.Categories)+1)
		return m, nil
	case key.Matches(msg, m.keys.copyReport):
		return m, m.copyReport()
	}
	return m, nil
}

// View renders the current page.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render builds the full screen as text.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	activeTab := lipgloss.NewStyle().Bold(true).Foreground(accent)
	tabStyle := lipgloss.NewStyle().Foreground(muted)
	noteStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	tabs := make([]string, 0, viewCount)
	for v := viewAssets; v < viewCount; v++ {
		if v == m.view {
			tabs = append(tabs, activeTab.Render("["+v.label()+"]"))
			continue
		}
		tabs = append(tabs, tabStyle.Render(" "+v.label()+" "))
	}
	header := titleStyle.Render(m.title) + "  " + strings.Join(tabs, " ")
	if strings.TrimSpace(m.status) != "" {
		header += noteStyle.Render("  " + m.status)
	}

	footer := m.help.View(m.keys)
	bodyHeight := max(3, m.height-lipgloss.Height(header)-lipgloss.Height(footer)-1)

	var body string
	switch m.view {
	case viewContract:
		body = m.renderContract(bodyHeight)
	case viewPivot:
		body = m.renderPivot(bodyHeight)
	default:
		body = m.renderAssets(bodyHeight)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, fitLines(body, bodyHeight), footer)
}

// renderAssets draws the asset list beside the selected asset's resolved activities.
func (m Model) renderAssets(height int) string {
	accent := lipgloss.Color("62")
	dim := lipgloss.Color("239")
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selected := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	heading := lipgloss.NewStyle().Bold(true).Foreground(accent)

	listWidth := clamp(m.width/3, 24, 48)
	detailWidth := max(24, m.width-listWidth-4)
	panel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1)
	innerHeight := max(1, height-2)

	if len(m.dataset.Assets) == 0 {
		return panel.Width(m.width - 2).Render(fitLines("No asset types yet.", innerHeight))
	}

	lines := []string{heading.Render(fmt.Sprintf("Asset types (%d)", len(m.dataset.Assets)))}
	for i, asset := range m.dataset.Assets {
		name := truncate(asset.Name, listWidth-6)
		if i == m.selectedAsset {
			lines = append(lines, selected.Render("│ "+name))
		} else {
			lines = append(lines, "  "+name)
		}
		if tags := locationLabels(asset.LocationTypes); tags != "" {
			lines = append(lines, "  "+muted.Render(truncate(tags, listWidth-6)))
		}
	}
	list := panel.BorderForeground(accent).Width(listWidth).Render(fitLines(strings.Join(lines, "\n"), innerHeight))

	asset := m.dataset.Assets[m.selectedAsset]
	detail := []string{heading.Render(asset.Name)}
	if asset.Description != "" {
		detail = append(detail, muted.Render(truncate(asset.Description, detailWidth-4)))
	}
	detail = append(detail, "")
	resolved, err := m.src.ResolveAsset(asset.ID)
	switch {
	case err != nil:
		detail = append(detail, "error: "+err.Error())
	case len(resolved) == 0:
		detail = append(detail, muted.Render("(no applicable activities)"))
	default:
		for _, item := range resolved {
			detail = append(detail, m.activityLine(item, detailWidth-4))
		}
	}
	right := panel.Width(detailWidth).Render(fitLines(strings.Join(detail, "\n"), innerHeight))
	return lipgloss.JoinHorizontal(lipgloss.Top, list, right)
}

// activityLine renders one resolved activity with its status badge.
func (m Model) activityLine(item coverage.ResolvedActivity, width int) string {
	r := item.Record
	name := r.ActivityName
	if item.IsDependent {
		name = strings.Repeat("  ", max(item.Depth-1, 0)) + "↳ " + name
	}
	badge := statusStyle(r.Status).Render(r.Status.Label())
	validation := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render(r.ValidationStatus.Label())
	category := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(r.Category)
	return truncate(name, max(8, width/2)) + "  " + category + "  " + badge + "  " + validation
}

// renderContract draws the selected contract report as rendered markdown.
func (m Model) renderContract(height int) string {
	contracts := m.dataset.Contracts
	if len(contracts) == 0 {
		return "No contracts yet."
	}
	contract := contracts[m.selectedContract]
	view, err := m.src.ContractView(contract.ID)
	if err != nil {
		return "error: " + err.Error()
	}
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).
		Render(fmt.Sprintf("Contract %d/%d · %d activities", m.selectedContract+1, len(contracts), view.RowCount()))
	report := m.md.renderContract(view, m.width-4)
	return fitLines(heading+"\n"+report, height)
}

// renderPivot draws the status and validation tallies plus per-asset counts.
func (m Model) renderPivot(height int) string {
	category := m.pivotCategoryName()
	pivot := m.src.Pivot(coverage.PivotOptions{Category: category})
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	scope := "all categories"
	if category != "" {
		scope = category
	}
	lines := []string{
		heading.Render(fmt.Sprintf("Pivot · %s · %d applicable activities", scope, pivot.Total)),
		"",
		heading.Render("Status"),
	}
	barWidth := clamp(m.width-40, 10, 40)
	for i, entry := range pivot.StatusTally {
		style := statusStyle(domain.Statuses()[i])
		lines = append(lines, tallyLine(entry, barWidth, style))
	}
	lines = append(lines, "", heading.Render("Validation"))
	for _, entry := range pivot.ValidationTally {
		lines = append(lines, tallyLine(entry, barWidth, muted))
	}
	lines = append(lines, "", heading.Render("Per asset"))
	for _, row := range pivot.Rows {
		parts := make([]string, 0, len(domain.Statuses()))
		for _, s := range domain.Statuses() {
			parts = append(parts, statusStyle(s).Render(fmt.Sprintf("%d", row.StatusCounts[s.Key()])))
		}
		lines = append(lines, fmt.Sprintf("%-24s %s", truncate(row.AssetName, 24), strings.Join(parts, " ")))
	}
	return fitLines(strings.Join(lines, "\n"), height)
}

// tallyLine renders one distribution entry as a labeled bar.
func tallyLine(entry coverage.TallyEntry, width int, style lipgloss.Style) string {
	filled := int(entry.Percent * float64(width) / 100)
	bar := style.Render(strings.Repeat("█", filled)) + strings.Repeat("·", max(0, width-filled))
	return fmt.Sprintf("%-12s %s %3d (%5.1f%%)", entry.Label, bar, entry.Count, entry.Percent)
}

// pivotCategoryName returns the active pivot filter, blank for all categories.
func (m Model) pivotCategoryName() string {
	if m.pivotCategory <= 0 || m.pivotCategory > len(m.dataset.Taxonomy.Categories) {
		return ""
	}
	return m.dataset.Taxonomy.Categories[m.pivotCategory-1]
}

// loadData reads the current snapshot from the source.
func (m Model) loadData() tea.Msg {
	return loadedMsg{dataset: m.src.Dataset(), stale: m.src.Err()}
}

// waitForChange blocks on the source change signal.
func (m Model) waitForChange() tea.Cmd {
	changes := m.src.Changes()
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// moveAsset persists one reorder of the selected asset.
func (m Model) moveAsset(d domain.Direction) tea.Cmd {
	if m.view != viewAssets || m.svc == nil || len(m.dataset.Assets) == 0 {
		return nil
	}
	id := m.dataset.Assets[m.selectedAsset].ID
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		moved, err := svc.MoveAsset(ctx, id, d)
		return assetMovedMsg{id: id, moved: moved, err: err}
	}
}

// copyReport writes the selected contract report to the clipboard.
func (m Model) copyReport() tea.Cmd {
	if len(m.dataset.Contracts) == 0 || m.copy == nil {
		return nil
	}
	contract := m.dataset.Contracts[m.selectedContract]
	view, err := m.src.ContractView(contract.ID)
	if err != nil {
		return func() tea.Msg { return reportCopiedMsg{contract: contract.Name, err: err} }
	}
	report := coverage.ContractMarkdown(view)
	write := m.copy
	return func() tea.Msg {
		return reportCopiedMsg{contract: contract.Name, err: write(report)}
	}
}

// clampSelection keeps cursors valid after the dataset changes.
func (m *Model) clampSelection() {
	if m.focusAssetID != "" {
		for i, a := range m.dataset.Assets {
			if a.ID == m.focusAssetID {
				m.selectedAsset = i
				break
			}
		}
		m.focusAssetID = ""
	}
	m.selectedAsset = clamp(m.selectedAsset, 0, len(m.dataset.Assets)-1)
	m.selectedContract = clamp(m.selectedContract, 0, len(m.dataset.Contracts)-1)
	m.pivotCategory = clamp(m.pivotCategory, 0, len(m.dataset.Taxonomy.Categories))
}

// statusStyle colors one status like the dashboard traffic lights.
func statusStyle(s domain.Status) lipgloss.Style {
	color := "241"
	switch s {
	case domain.StatusIncluded:
		color = "42"
	case domain.StatusIntegrable:
		color = "220"
	case domain.StatusSpecific:
		color = "203"
	case domain.StatusNotApplicable:
		color = "245"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// locationLabels joins the display labels of tags.
func locationLabels(tags []domain.LocationTag) string {
	labels := make([]string, 0, len(tags))
	for _, t := range tags {
		labels = append(labels, t.Info().Label)
	}
	return strings.Join(labels, ", ")
}
