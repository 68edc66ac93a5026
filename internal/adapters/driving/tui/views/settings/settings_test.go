package settings

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// MockSettingsService is a mock implementation of driving.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AppSettings), args.Error(1)
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	return m.Called(settings).Error(0)
}

func (m *MockSettingsService) Set(key, value string) error {
	return m.Called(key, value).Error(0)
}

func (m *MockSettingsService) Keys() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	return m.Called(provider, model, apiKey).Error(0)
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	return m.Called(provider, model, apiKey).Error(0)
}

func (m *MockSettingsService) Validate() error {
	return m.Called().Error(0)
}

func (m *MockSettingsService) ValidateEmbeddingConfig() error {
	return m.Called().Error(0)
}

func (m *MockSettingsService) ValidateLLMConfig() error {
	return m.Called().Error(0)
}

func testSettings() *domain.AppSettings {
	s := domain.DefaultAppSettings()
	s.Store.Backend = domain.StoreBackendSQLite
	s.Embedding = domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		Model:    "nomic-embed-text",
		BaseURL:  "http://localhost:11434",
	}
	s.LLM = domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3.2",
		BaseURL:  "http://localhost:11434",
	}
	return &s
}

func loadedView(svc *MockSettingsService) *View {
	view := NewView(styles.DefaultStyles(), svc)
	view.Update(messages.SettingsLoaded{Settings: testSettings()})
	return view
}

func press(view *View, keyType tea.KeyType) tea.Cmd {
	_, cmd := view.Update(tea.KeyMsg{Type: keyType})
	return cmd
}

func typeText(view *View, s string) {
	view.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestNewView(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.Equal(t, SectionOverview, view.section)
	assert.False(t, view.editing)
}

func TestView_Init(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Get").Return(testSettings(), nil)

	loaded, ok := NewView(nil, svc).Init()().(messages.SettingsLoaded)

	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, domain.StoreBackendSQLite, loaded.Settings.Store.Backend)
	svc.AssertExpectations(t)

	loaded = NewView(nil, nil).Init()().(messages.SettingsLoaded)
	assert.ErrorIs(t, loaded.Err, errNoService)
}

func TestView_LoadError(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))

	view.Update(messages.SettingsLoaded{Err: errors.New("read failed")})

	assert.Contains(t, view.View(), "Error: read failed")
	assert.Contains(t, view.View(), "Loading settings...")
}

func TestView_EscWhileLoadingGoesToMenu(t *testing.T) {
	view := NewView(nil, new(MockSettingsService))

	cmd := press(view, tea.KeyEsc)

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Overview(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Validate").Return(nil)
	view := loadedView(svc)

	out := view.View()

	for _, want := range []string{
		"Chunk Store: SQLite (embedded)",
		"Embedding Provider: Ollama (local) (nomic-embed-text)",
		"LLM Provider: Ollama (local) (llama3.2)",
		"Chunk Size: 5000",
		"Top K: 5",
		"Context Budget: 8000",
		"Default Source: docs",
		"Configuration is valid",
	} {
		assert.Contains(t, out, want)
	}
}

func TestView_OverviewValidationWarning(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Validate").Return(errors.New("embedding provider is not configured"))

	assert.Contains(t, loadedView(svc).View(), "Warning: embedding provider is not configured")
}

func TestStoreStatus(t *testing.T) {
	s := testSettings()
	s.Store.Backend = domain.StoreBackendPostgres

	status, ok := storeStatus(s)
	assert.Equal(t, "[needs DSN]", status)
	assert.False(t, ok)

	s.Store.DSN = "postgres://localhost/docs"
	status, ok = storeStatus(s)
	assert.Empty(t, status)
	assert.True(t, ok)
}

func TestView_Escape(t *testing.T) {
	view := loadedView(new(MockSettingsService))
	view.section = SectionLLM
	view.selected = 2

	assert.Nil(t, press(view, tea.KeyEsc))
	assert.Equal(t, SectionOverview, view.section)
	assert.Equal(t, 0, view.selected)

	cmd := press(view, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_OverviewOpensPickerAtCurrentValue(t *testing.T) {
	tests := []struct {
		row      int
		section  Section
		selected int
	}{
		{0, SectionStore, 1},
		{1, SectionEmbedding, 0},
		{2, SectionLLM, 0},
	}

	for _, tt := range tests {
		view := loadedView(new(MockSettingsService))
		view.selected = tt.row

		press(view, tea.KeyEnter)

		assert.Equal(t, tt.section, view.section)
		assert.Equal(t, tt.selected, view.selected)
	}
}

func TestView_NavigationStaysInBounds(t *testing.T) {
	view := loadedView(new(MockSettingsService))

	press(view, tea.KeyUp)
	assert.Equal(t, 0, view.selected)

	for range len(rows) + 2 {
		press(view, tea.KeyDown)
	}
	assert.Equal(t, len(rows)-1, view.selected)
}

func TestView_SelectStoreBackend(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Set", "store.backend", "memory").Return(nil)
	svc.On("Get").Return(testSettings(), nil)
	view := loadedView(svc)
	view.selected = 0
	press(view, tea.KeyEnter)
	require.Equal(t, SectionStore, view.section)

	press(view, tea.KeyDown)
	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)
	require.NoError(t, saved.Err)

	_, cmd := view.Update(saved)
	require.NotNil(t, cmd)
	assert.Equal(t, SectionOverview, view.section)
	svc.AssertExpectations(t)
}

func TestView_PostgresAsksForDSN(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Set", "store.backend", "postgres").Return(nil)
	svc.On("Set", "store.dsn", "postgres://localhost/docs").Return(nil)
	view := loadedView(svc)
	view.section = SectionStore
	view.selected = 0

	press(view, tea.KeyEnter)
	require.True(t, view.editing)
	assert.Contains(t, view.View(), "DSN (blank keeps current):")

	typeText(view, "postgres://localhost/docs")
	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)

	assert.NoError(t, saved.Err)
	svc.AssertExpectations(t)
}

func TestView_SaveErrorKeepsSection(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Set", "store.backend", "memory").Return(errors.New("write failed"))
	view := loadedView(svc)
	view.section = SectionStore
	view.selected = 2

	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)
	view.Update(saved)

	assert.EqualError(t, saved.Err, "write failed")
	assert.Equal(t, SectionStore, view.section)
	assert.Contains(t, view.View(), "Error: write failed")
}

func TestView_LocalEmbeddingProviderSavesDirectly(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("SetEmbeddingProvider", domain.AIProviderOllama, "nomic-embed-text", "").Return(nil)
	view := loadedView(svc)
	view.section = SectionEmbedding
	view.selected = 0

	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)

	assert.NoError(t, saved.Err)
	svc.AssertExpectations(t)
}

func TestView_CloudProviderAsksForKey(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("SetEmbeddingProvider", domain.AIProviderOpenAI, "text-embedding-3-small", "sk-test").Return(nil)
	svc.On("Get").Return(testSettings(), nil)
	view := loadedView(svc)
	view.section = SectionEmbedding
	view.selected = 1

	press(view, tea.KeyEnter)
	assert.True(t, view.editing)
	assert.Contains(t, view.View(), "API Key:")

	typeText(view, "sk-test")
	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)
	require.NoError(t, saved.Err)
	view.Update(saved)

	assert.False(t, view.editing)
	assert.Empty(t, view.input.Value())
	svc.AssertExpectations(t)
}

func TestView_BlankAPIKeyRejected(t *testing.T) {
	view := loadedView(new(MockSettingsService))
	view.section = SectionLLM
	view.selected = 1

	press(view, tea.KeyEnter)
	cmd := press(view, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Contains(t, view.View(), "requires an API key")
}

func TestView_TabTogglesSecretInput(t *testing.T) {
	view := loadedView(new(MockSettingsService))
	view.section = SectionEmbedding
	view.selected = 0

	press(view, tea.KeyTab)
	assert.False(t, view.editing, "local provider has no secret")

	view.selected = 1
	press(view, tea.KeyTab)
	assert.True(t, view.editing)
	assert.Contains(t, view.renderHelp(), "[tab] back to list")

	press(view, tea.KeyTab)
	assert.False(t, view.editing)
}

func TestView_AnthropicLLM(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("SetLLMProvider", domain.AIProviderAnthropic, "claude-3-5-sonnet-latest", "key").Return(nil)
	view := loadedView(svc)
	view.section = SectionLLM
	view.selected = 2

	press(view, tea.KeyEnter)
	typeText(view, "key")
	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)

	assert.NoError(t, saved.Err)
	svc.AssertExpectations(t)
}

func TestView_EditTuningValue(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Set", "retrieval.top_k", "8").Return(nil)
	view := loadedView(svc)
	view.selected = 4

	press(view, tea.KeyEnter)
	require.True(t, view.editing)
	assert.Equal(t, "5", view.input.Value())

	press(view, tea.KeyBackspace)
	typeText(view, "8")
	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)

	assert.NoError(t, saved.Err)
	svc.AssertExpectations(t)
}

func TestView_EditTuningValueRejectsNonNumber(t *testing.T) {
	svc := new(MockSettingsService)
	view := loadedView(svc)
	view.selected = 3

	press(view, tea.KeyEnter)
	view.input.SetValue("lots")
	cmd := press(view, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.EqualError(t, view.err, "Chunk Size must be a positive integer")
	svc.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestView_EditCancelled(t *testing.T) {
	view := loadedView(new(MockSettingsService))
	view.selected = 7

	press(view, tea.KeyEnter)
	require.True(t, view.editing)

	assert.Nil(t, press(view, tea.KeyEsc))
	assert.False(t, view.editing)
	assert.Equal(t, SectionOverview, view.section)
}

func TestView_NoServiceOnSave(t *testing.T) {
	view := NewView(nil, nil)
	view.Update(messages.SettingsLoaded{Settings: testSettings()})
	view.section = SectionStore
	view.selected = 2

	saved := press(view, tea.KeyEnter)().(messages.SettingsSaved)

	assert.ErrorIs(t, saved.Err, errNoService)
}

func TestView_CurrentIndex(t *testing.T) {
	view := NewView(nil, nil)
	view.section = SectionStore
	assert.Equal(t, 0, view.currentIndex(), "no settings loaded")

	view.Update(messages.SettingsLoaded{Settings: testSettings()})
	view.settings.Store.Backend = domain.StoreBackendMemory
	view.settings.Embedding.Provider = domain.AIProviderOpenAI
	view.settings.LLM.Provider = domain.AIProviderAnthropic

	assert.Equal(t, 2, view.currentIndex())
	view.section = SectionEmbedding
	assert.Equal(t, 1, view.currentIndex())
	view.section = SectionLLM
	assert.Equal(t, 2, view.currentIndex())
}

func TestView_Reset(t *testing.T) {
	view := loadedView(new(MockSettingsService))
	view.section = SectionEmbedding
	view.selected = 1
	press(view, tea.KeyEnter)
	typeText(view, "secret")

	view.Reset()

	assert.Equal(t, SectionOverview, view.section)
	assert.False(t, view.editing)
	assert.Empty(t, view.input.Value())
}
