package tui

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"curate/internal/domain"
)

// StatsPort is the TUI-facing subset of the curation service.
type StatsPort interface {
	Analyze(samples []domain.Sample) domain.DatasetStats
}

// Model is the Bubble Tea model for browsing a sample set.
type Model struct {
	service  StatsPort
	input    textinput.Model
	viewport viewport.Model
	samples  []domain.Sample
	visible  []int
	stats    domain.DatasetStats
	title    string
	status   string
	cursor   int
	ready    bool
	filter   string
}

// New creates a browser over samples. title is shown above the stats line.
func New(service StatsPort, samples []domain.Sample, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Filter: domain:<name> bucket:<easy|medium|hard> or text, Enter to apply"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	m := Model{service: service, input: ti, viewport: vp, samples: samples, title: title}
	m.applyFilter("")
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around sample and filter boxes
		_, sh := sampleBoxStyle.GetFrameSize()
		_, fh := filterBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // title + stats
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + fh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-sh)
		m.viewport.SetContent(m.renderCurrentSample())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			m.applyFilter(m.input.Value())
			m.viewport.SetContent(m.renderCurrentSample())
			return m, nil
		case "down":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor + 1) % len(m.visible)
				m.viewport.SetContent(m.renderCurrentSample())
				return m, nil
			}
		case "up":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor - 1 + len(m.visible)) % len(m.visible)
				m.viewport.SetContent(m.renderCurrentSample())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current sample.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render(m.title)
	stats := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.statsLine())
	input := filterBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	sample := sampleBoxStyle.Render(m.viewport.View())
	return header + "\n" + stats + "\n" + sample + "\n" + input + "\n" + status
}

// Visible returns the ids of the samples matching the current filter.
func (m Model) Visible() []string {
	out := make([]string, len(m.visible))
	for i, idx := range m.visible {
		out[i] = m.samples[idx].ID
	}
	return out
}

// Current returns the sample under the cursor.
func (m Model) Current() (domain.Sample, bool) {
	if len(m.visible) == 0 {
		return domain.Sample{}, false
	}
	return m.samples[m.visible[m.cursor]], true
}

// applyFilter keeps samples matching every term of query. Terms are
// domain:<name>, bucket:<name>, or free text matched against id and content.
func (m *Model) applyFilter(query string) {
	query = strings.TrimSpace(query)
	m.filter = query
	m.cursor = 0
	m.visible = make([]int, 0, len(m.samples))

	var domainTerm, bucketTerm string
	var textTerms []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		switch {
		case strings.HasPrefix(term, "domain:"):
			domainTerm = strings.TrimPrefix(term, "domain:")
		case strings.HasPrefix(term, "bucket:"):
			bucketTerm = strings.TrimPrefix(term, "bucket:")
		default:
			textTerms = append(textTerms, term)
		}
	}

	subset := make([]domain.Sample, 0, len(m.samples))
	for i, s := range m.samples {
		if domainTerm != "" && strings.ToLower(s.Domain) != domainTerm {
			continue
		}
		if bucketTerm != "" && string(s.Bucket()) != bucketTerm {
			continue
		}
		if !matchesText(s, textTerms) {
			continue
		}
		m.visible = append(m.visible, i)
		subset = append(subset, s)
	}
	m.stats = m.service.Analyze(subset)

	if query == "" {
		m.status = fmt.Sprintf("%d samples. Up/Down to browse, Esc to quit.", len(m.visible))
	} else {
		m.status = fmt.Sprintf("%d of %d samples match %q", len(m.visible), len(m.samples), query)
	}
}

func matchesText(s domain.Sample, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(s.ID + "\n" + s.Content())
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

func (m Model) statsLine() string {
	domains := make([]string, 0, len(m.stats.DomainDistribution))
	for name, count := range m.stats.DomainDistribution {
		domains = append(domains, fmt.Sprintf("%s=%d", name, count))
	}
	sort.Strings(domains)
	d := m.stats.DifficultyDistribution
	return fmt.Sprintf("diversity=%.3f semantic=%.3f domain=%.3f difficulty=%.3f | %s | easy=%d medium=%d hard=%d | dup pairs=%d",
		m.stats.DiversityScore, m.stats.SemanticDiversity, m.stats.DomainBalance, m.stats.DifficultyBalance,
		strings.Join(domains, " "),
		d[domain.BucketEasy], d[domain.BucketMedium], d[domain.BucketHard],
		len(m.stats.DuplicatePairs))
}

func (m Model) renderCurrentSample() string {
	s, ok := m.Current()
	if !ok {
		return "No samples match."
	}
	title := fmt.Sprintf("Sample %d/%d  id=%s  domain=%s  %s (%.2f)  quality=%.3f",
		m.cursor+1, len(m.visible), s.ID, s.Domain, s.Bucket(), s.Difficulty, s.Quality)
	body := highlightTerms(s.Content(), m.filter)
	return title + "\n\n" + body
}

var (
	sampleBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	filterBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
)

// highlightTerms renders words of text that appear among the free-text
// terms of query.
func highlightTerms(text, query string) string {
	terms := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(t, ":") {
			continue
		}
		terms[t] = struct{}{}
	}
	if len(terms) == 0 {
		return text
	}
	return unicodeWordRe.ReplaceAllStringFunc(text, func(word string) string {
		if _, ok := terms[strings.ToLower(word)]; ok {
			return highlightStyle.Render(word)
		}
		return word
	})
}
