package assistant

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks DataSource,MarketContext,Searcher,LLM,Sessions,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"finsight/internal/assistant/mocks"
	"finsight/internal/finance/models"
	financestore "finsight/internal/finance/store"
	mcmodels "finsight/internal/marketcontext/models"
	"finsight/internal/privacy/tokenize"
	"finsight/internal/tier"
	dErrors "finsight/pkg/domain-errors"
	"finsight/pkg/platform/audit"
	"finsight/pkg/requestcontext"
)

// =============================================================================
// Context Assembler Test Suite
// =============================================================================
// Justification for unit tests: tier gating and the no-raw-names guarantee are
// properties of the exact prompt text, which is only observable at the model port.

type AssistantSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	market   *mocks.MockMarketContext
	search   *mocks.MockSearcher
	llm      *mocks.MockLLM
	auditor  *mocks.MockAuditPublisher
	data     *financestore.InMemoryStore
	sessions *tokenize.Sessions
	service  *Service

	prompts []string
}

func TestAssistantSuite(t *testing.T) {
	suite.Run(t, new(AssistantSuite))
}

const (
	economicText = "Economic indicators (as of 2025-01-15):\n- Federal funds rate: 4.33% (2025-01-01)"
	liveText     = "Live market data:\n- Stocks edge higher: The S&P 500 rose 0.8%"
)

func (s *AssistantSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.market = mocks.NewMockMarketContext(s.ctrl)
	s.search = mocks.NewMockSearcher(s.ctrl)
	s.llm = mocks.NewMockLLM(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.sessions = tokenize.NewSessions()
	s.prompts = nil

	f := models.Float
	s.data = financestore.NewInMemoryStore()
	s.data.Put("user-1", models.Snapshot{
		Accounts: []models.Account{
			{AccountID: "a1", Name: "Chase Checking", Type: "depository", Subtype: "checking",
				CurrentBalance: f(1000), InstitutionName: "Chase Bank"},
		},
		Transactions: []models.Transaction{
			{TransactionID: "t1", Name: "Starbucks", Amount: f(-4.75), Date: "2025-01-15"},
		},
		Holdings: []models.Holding{
			{SecurityName: "Apple Inc.", TickerSymbol: "AAPL", SecurityType: "equity", Quantity: f(10)},
		},
		Liabilities: []models.Liability{
			{Name: "Sapphire Card", Type: "credit", InstitutionName: "Chase Bank", APR: f(21.5)},
		},
	}, &models.Profile{RiskTolerance: "moderate"})

	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc, err := New(s.data, s.llm, s.sessions,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMarketContext(s.market),
		WithSearch(s.search, s.search),
		WithAuditPublisher(s.auditor),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *AssistantSuite) ctx(t tier.Tier) context.Context {
	return requestcontext.WithSession(context.Background(), "user-1", "session-1", string(t))
}

func (s *AssistantSuite) expectLLM(reply string) {
	s.llm.EXPECT().Complete(gomock.Any(), SystemPrompt, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, prompt string) (string, error) {
			s.prompts = append(s.prompts, prompt)
			return reply, nil
		})
}

func (s *AssistantSuite) lastPrompt() string {
	s.Require().NotEmpty(s.prompts)
	return s.prompts[len(s.prompts)-1]
}

func (s *AssistantSuite) assertNoRawNames(prompt string) {
	for _, raw := range []string{"Chase Checking", "Chase Bank", "Starbucks", "Apple Inc.", "Sapphire Card"} {
		s.NotContains(prompt, raw)
	}
}

// =============================================================================
// Tier gating
// =============================================================================

func (s *AssistantSuite) TestStarterHasNoMarketSections() {
	s.expectLLM("Keep an eye on Account_1.")

	answer, err := s.service.Ask(s.ctx(tier.Starter), Question{Text: "How am I doing?"})
	s.Require().NoError(err)

	prompt := s.lastPrompt()
	s.Contains(prompt, "=== "+SectionAccounts+" ===")
	s.Contains(prompt, "=== "+SectionTransactions+" ===")
	s.NotContains(prompt, SectionMarket)
	s.NotContains(prompt, SectionSearch)
	s.NotContains(prompt, SectionInvestments)
	s.NotContains(prompt, SectionLiabilities)
	s.NotContains(prompt, "Economic indicators")
	s.NotContains(prompt, "Live market data")

	s.Equal(tier.Starter, answer.Tier)
	s.False(answer.UsedRealtimeSearch)
	s.NotEmpty(answer.UpgradeHints)
	s.Equal("Keep an eye on Chase Checking at Chase Bank.", answer.Text)
}

func (s *AssistantSuite) TestStandardHasIndicatorsButNoLiveData() {
	s.market.EXPECT().GetSummary(gomock.Any(), tier.Standard, false).Return(economicText, nil)
	s.expectLLM("ok")

	answer, err := s.service.Ask(s.ctx(tier.Standard), Question{Text: "Should I refinance?"})
	s.Require().NoError(err)

	prompt := s.lastPrompt()
	s.Contains(prompt, "=== "+SectionMarket+" ===\n"+economicText)
	s.Contains(prompt, SectionInvestments)
	s.Contains(prompt, SectionLiabilities)
	s.NotContains(prompt, "Live market data")
	s.NotContains(prompt, SectionSearch)
	s.assertNoRawNames(prompt)

	s.Contains(answer.AvailableSources, tier.SourceEconomicIndicators)
	s.Contains(answer.UnavailableSources, tier.SourceLiveMarketData)
	s.NotEmpty(answer.UpgradeHints)
}

func (s *AssistantSuite) TestPremiumHasIndicatorsAndLiveData() {
	s.market.EXPECT().GetSummary(gomock.Any(), tier.Premium, false).Return(economicText+"\n\n"+liveText, nil)
	s.search.EXPECT().Search(gomock.Any(), "Is Account_1 earning enough?", 5).
		Return([]mcmodels.Headline{{Title: "Savings rates steady", Snippet: "Top yields near 4.5%", PublishedAt: "2025-01-15"}}, nil)
	s.expectLLM("ok")

	answer, err := s.service.Ask(s.ctx(tier.Premium), Question{Text: "Is Chase Checking earning enough?"})
	s.Require().NoError(err)

	prompt := s.lastPrompt()
	s.Contains(prompt, "Economic indicators")
	s.Contains(prompt, "Live market data")
	s.Contains(prompt, "=== "+SectionSearch+" ===\n- Savings rates steady: Top yields near 4.5% (2025-01-15)")
	s.Contains(prompt, "=== "+SectionQuestion+" ===\nIs Account_1 earning enough?")
	s.assertNoRawNames(prompt)

	s.True(answer.UsedRealtimeSearch)
	s.Empty(answer.UpgradeHints, "hints are suppressed once real-time data was used")
}

func (s *AssistantSuite) TestUnknownTierIsStarter() {
	s.expectLLM("ok")
	ctx := requestcontext.WithSession(context.Background(), "user-1", "session-1", "platinum")

	answer, err := s.service.Ask(ctx, Question{Text: "hello"})
	s.Require().NoError(err)
	s.Equal(tier.Starter, answer.Tier)
}

// =============================================================================
// Privacy
// =============================================================================

func (s *AssistantSuite) TestRawNamesNeverReachTheModel() {
	s.market.EXPECT().GetSummary(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil)
	s.expectLLM("Account_1 paid Merchant_1 and owes Liability_1. Security_1 is up.")

	answer, err := s.service.Ask(s.ctx(tier.Standard), Question{Text: "Did I overspend at Starbucks from Chase Checking?"})
	s.Require().NoError(err)

	prompt := s.lastPrompt()
	s.assertNoRawNames(prompt)
	s.Contains(prompt, "$-4.75")
	s.Contains(answer.Text, "Chase Checking at Chase Bank paid Starbucks")
	s.Contains(answer.Text, "Sapphire Card (credit) at Chase Bank")
	s.Contains(answer.Text, "Apple Inc. (AAPL) - equity")
}

func (s *AssistantSuite) TestQuestionAndGoalsMaskedRegardlessOfCase() {
	s.data.Put("user-2", models.Snapshot{
		Accounts: []models.Account{{Name: "Chase Checking", InstitutionName: "Chase Bank", CurrentBalance: models.Float(50)}},
	}, &models.Profile{Goals: []string{"Stop paying CHASE BANK fees", " ", "Save for a boat"}})
	s.expectLLM("ok")

	ctx := requestcontext.WithSession(context.Background(), "user-2", "session-2", string(tier.Starter))
	_, err := s.service.Ask(ctx, Question{Text: "is my chase checking at chase bank ok?"})
	s.Require().NoError(err)

	prompt := s.lastPrompt()
	s.Contains(prompt, "Goals: Stop paying Institution_1 fees; Save for a boat")
	s.Contains(prompt, "=== "+SectionQuestion+" ===\nis my Account_1 ok?")
	s.NotContains(strings.ToLower(prompt), "chase")
}

func (s *AssistantSuite) TestSearchResultsCap() {
	svc, err := New(s.data, s.llm, s.sessions,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSearch(s.search, s.search),
		WithSearchResults(3),
	)
	s.Require().NoError(err)
	s.search.EXPECT().Search(gomock.Any(), gomock.Any(), 3).Return(nil, nil)
	s.expectLLM("ok")

	_, err = svc.Ask(s.ctx(tier.Premium), Question{Text: "Any news?"})
	s.Require().NoError(err)
}

func (s *AssistantSuite) TestTokensAreStableAcrossTurns() {
	s.expectLLM("a")
	s.expectLLM("b")

	_, err := s.service.Ask(s.ctx(tier.Starter), Question{Text: "first"})
	s.Require().NoError(err)
	_, err = s.service.Ask(s.ctx(tier.Starter), Question{Text: "second"})
	s.Require().NoError(err)

	s.Require().Len(s.prompts, 2)
	first := strings.Split(s.prompts[0], "=== "+SectionTier)[0]
	second := strings.Split(s.prompts[1], "=== "+SectionTier)[0]
	s.Equal(first, second)
}

// =============================================================================
// Degradation and errors
// =============================================================================

func (s *AssistantSuite) TestMarketAndSearchFailuresDegrade() {
	s.market.EXPECT().GetSummary(gomock.Any(), tier.Premium, false).
		Return("", dErrors.New(dErrors.CodeUnavailable, "market context unavailable"))
	s.search.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("search down"))
	s.expectLLM("ok")

	answer, err := s.service.Ask(s.ctx(tier.Premium), Question{Text: "What now?"})
	s.Require().NoError(err)

	prompt := s.lastPrompt()
	s.NotContains(prompt, SectionMarket)
	s.NotContains(prompt, SectionSearch)
	s.Contains(prompt, SectionAccounts)
	s.False(answer.UsedRealtimeSearch)
}

func (s *AssistantSuite) TestModelFailureIsGeneric() {
	s.llm.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("anthropic: 529 overloaded while handling Account_1"))

	_, err := s.service.Ask(s.ctx(tier.Starter), Question{Text: "hi"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal("unable to process your request", err.Error())
}

func (s *AssistantSuite) TestDataFailureIsUnavailable() {
	data := mocks.NewMockDataSource(s.ctrl)
	data.EXPECT().Snapshot(gomock.Any(), "user-1", 50).Return(nil, errors.New("connection refused"))
	data.EXPECT().Profile(gomock.Any(), "user-1").Return(nil, financestore.ErrNotFound).AnyTimes()

	svc, err := New(data, s.llm, s.sessions)
	s.Require().NoError(err)

	_, err = svc.Ask(s.ctx(tier.Starter), Question{Text: "hi"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *AssistantSuite) TestUserWithoutDataStillGetsAnswer() {
	s.expectLLM("Link an account to get started.")
	ctx := requestcontext.WithSession(context.Background(), "user-2", "session-2", "starter")

	answer, err := s.service.Ask(ctx, Question{Text: "hi"})
	s.Require().NoError(err)
	s.NotContains(s.lastPrompt(), SectionAccounts)
	s.Equal("Link an account to get started.", answer.Text)
}

func (s *AssistantSuite) TestValidation() {
	_, err := s.service.Ask(context.Background(), Question{Text: "hi"})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.Ask(s.ctx(tier.Starter), Question{Text: "   "})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *AssistantSuite) TestDemoUsesDemoData() {
	svc, err := New(s.data, s.llm, s.sessions,
		WithDemoData(financestore.NewDemoStore()),
		WithMarketContext(s.market),
	)
	s.Require().NoError(err)
	s.market.EXPECT().GetSummary(gomock.Any(), tier.Standard, true).Return(economicText, nil)
	s.expectLLM("ok")

	_, err = svc.Ask(s.ctx(tier.Standard), Question{Text: "hi", Demo: true})
	s.Require().NoError(err)
	prompt := s.lastPrompt()
	s.NotContains(prompt, "Everyday Checking")
	s.Contains(prompt, "$4285.32")
	s.Contains(prompt, "Risk tolerance: moderate")
}

// =============================================================================
// Session lifecycle
// =============================================================================

func (s *AssistantSuite) TestEndSessionClearsRegistry() {
	s.expectLLM("ok")
	_, err := s.service.Ask(s.ctx(tier.Starter), Question{Text: "hi"})
	s.Require().NoError(err)
	s.Equal(1, s.sessions.Active())

	var events []audit.Event
	auditor := mocks.NewMockAuditPublisher(s.ctrl)
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		events = append(events, e)
		return nil
	}).Times(2)
	s.service.auditor = auditor

	ended, err := s.service.EndSession(s.ctx(tier.Starter))
	s.Require().NoError(err)
	s.True(ended)
	s.Equal(0, s.sessions.Active())

	ended, err = s.service.EndSession(s.ctx(tier.Starter))
	s.Require().NoError(err)
	s.False(ended)

	s.Require().Len(events, 2)
	s.Equal(string(audit.EventSessionEnded), events[0].Action)
	s.Equal(audit.CategorySecurity, events[0].Category)
	s.Equal("session-1", events[0].SessionID)
	s.Equal("true", events[0].Metadata["had_registry"])
	s.Equal("false", events[1].Metadata["had_registry"])

	_, err = s.service.EndSession(context.Background())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestNewRequiresCollaborators(t *testing.T) {
	sessions := tokenize.NewSessions()
	data := financestore.NewInMemoryStore()
	if _, err := New(nil, nil, sessions); err == nil {
		t.Fatal("expected error without data source")
	}
	ctrl := gomock.NewController(t)
	if _, err := New(data, nil, sessions); err == nil {
		t.Fatal("expected error without model")
	}
	if _, err := New(data, mocks.NewMockLLM(ctrl), nil); err == nil {
		t.Fatal("expected error without sessions")
	}
}
