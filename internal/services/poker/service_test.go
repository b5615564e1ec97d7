package poker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	clockMocks "github.com/KirkDiggler/storypoker/internal/common/clock/mocks"
	"github.com/KirkDiggler/storypoker/internal/common/uuid"
	uuidMocks "github.com/KirkDiggler/storypoker/internal/common/uuid/mocks"
	"github.com/KirkDiggler/storypoker/internal/models"
	sessionRepo "github.com/KirkDiggler/storypoker/internal/repositories/session"
	sessionMocks "github.com/KirkDiggler/storypoker/internal/repositories/session/mocks"
)

type PokerServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockSessionRepo *sessionMocks.MockRepository
	mockClock       *clockMocks.MockClock
	mockUUID        *uuidMocks.MockUUID
	pokerService    Service
	ctx             context.Context

	// Test data
	testTime  time.Time
	testToken string

	// The deck New builds from the default CSV
	defaultCards []models.Card
}

func (s *PokerServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockSessionRepo = sessionMocks.NewMockRepository(s.mockCtrl)
	s.mockClock = clockMocks.NewMockClock(s.mockCtrl)
	s.mockUUID = uuidMocks.NewMockUUID(s.mockCtrl)

	s.ctx = context.Background()

	s.testTime = time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
	s.testToken = "test-session-token"

	s.defaultCards = []models.Card{
		{Value: "1", Tag: "success"},
		{Value: "2", Tag: "danger"},
		{Value: "3", Tag: "primary"},
		{Value: "5", Tag: "warning"},
		{Value: "8", Tag: "info"},
		{Value: "13", Tag: "success"},
		{Value: "20", Tag: "danger"},
		{Value: "40", Tag: "primary"},
		{Value: "100", Tag: "warning"},
	}

	s.mockClock.EXPECT().Now().Return(s.testTime).AnyTimes()

	svc, err := New(&Config{
		SessionRepo:   s.mockSessionRepo,
		Clock:         s.mockClock,
		UUIDGenerator: s.mockUUID,
	})
	s.Require().NoError(err)
	s.pokerService = svc
}

func (s *PokerServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestPokerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PokerServiceTestSuite))
}

// emptySession builds the session EnsureSession would return for the
// test token
func (s *PokerServiceTestSuite) emptySession() *models.Session {
	return &models.Session{
		Token:     s.testToken,
		CreatedAt: s.testTime,
		Players:   map[string]*models.Player{},
		Tasks:     []*models.Task{},
		Cards:     s.defaultCards,
	}
}

// sessionWithTasks builds a session holding one empty-voted task per
// description
func (s *PokerServiceTestSuite) sessionWithTasks(descriptions ...string) *models.Session {
	session := s.emptySession()
	for _, description := range descriptions {
		session.Tasks = append(session.Tasks, models.NewTask(description))
	}
	return session
}

func (s *PokerServiceTestSuite) TestNew_Validation() {
	_, err := New(nil)
	s.Error(err)

	_, err = New(&Config{Clock: s.mockClock, UUIDGenerator: s.mockUUID})
	s.Error(err)

	_, err = New(&Config{SessionRepo: s.mockSessionRepo, UUIDGenerator: s.mockUUID})
	s.Error(err)

	_, err = New(&Config{SessionRepo: s.mockSessionRepo, Clock: s.mockClock})
	s.Error(err)
}

func (s *PokerServiceTestSuite) TestCreateSession_HappyPath() {
	s.mockUUID.EXPECT().NewUUID().Return(s.testToken)

	s.mockSessionRepo.EXPECT().EnsureSession(s.ctx, &sessionRepo.EnsureSessionInput{
		Token:        s.testToken,
		CreatedAt:    s.testTime,
		DefaultCards: s.defaultCards,
	}).Return(s.emptySession(), nil)

	output, err := s.pokerService.CreateSession(s.ctx, &CreateSessionInput{})
	s.Require().NoError(err)
	s.Equal(s.testToken, output.Token)
}

func (s *PokerServiceTestSuite) TestCreateSession_CustomDefaultDeck() {
	svc, err := New(&Config{
		DefaultDeck:   "1,2,bogus,4",
		SessionRepo:   s.mockSessionRepo,
		Clock:         s.mockClock,
		UUIDGenerator: s.mockUUID,
	})
	s.Require().NoError(err)

	s.mockUUID.EXPECT().NewUUID().Return(s.testToken)

	s.mockSessionRepo.EXPECT().EnsureSession(s.ctx, &sessionRepo.EnsureSessionInput{
		Token:     s.testToken,
		CreatedAt: s.testTime,
		DefaultCards: []models.Card{
			{Value: "1", Tag: "success"},
			{Value: "2", Tag: "danger"},
			{Value: "4", Tag: "warning"},
		},
	}).Return(s.emptySession(), nil)

	_, err = svc.CreateSession(s.ctx, &CreateSessionInput{})
	s.Require().NoError(err)
}

func (s *PokerServiceTestSuite) TestJoinSession_HappyPath() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, &sessionRepo.GetSessionInput{
		Token: s.testToken,
	}).Return(s.emptySession(), nil)

	output, err := s.pokerService.JoinSession(s.ctx, &JoinSessionInput{Token: s.testToken})
	s.Require().NoError(err)
	s.Equal(s.testToken, output.Session.Token)
}

func (s *PokerServiceTestSuite) TestJoinSession_SessionNotFound() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, &sessionRepo.GetSessionInput{
		Token: "bogus-token",
	}).Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.pokerService.JoinSession(s.ctx, &JoinSessionInput{Token: "bogus-token"})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *PokerServiceTestSuite) TestGetOverview_EnsuresSession() {
	s.mockSessionRepo.EXPECT().EnsureSession(s.ctx, &sessionRepo.EnsureSessionInput{
		Token:        s.testToken,
		CreatedAt:    s.testTime,
		DefaultCards: s.defaultCards,
	}).Return(s.emptySession(), nil)

	output, err := s.pokerService.GetOverview(s.ctx, &GetOverviewInput{Token: s.testToken})
	s.Require().NoError(err)
	s.Empty(output.Session.Players)
}

func (s *PokerServiceTestSuite) TestGetOverview_ReRegistersKnownUsername() {
	s.mockSessionRepo.EXPECT().EnsureSession(s.ctx, gomock.Any()).Return(s.emptySession(), nil)

	s.mockSessionRepo.EXPECT().RegisterPlayer(s.ctx, &sessionRepo.RegisterPlayerInput{
		Token:    s.testToken,
		Username: "alice",
	}).Return(&models.Player{Username: "alice"}, nil)

	output, err := s.pokerService.GetOverview(s.ctx, &GetOverviewInput{
		Token:    s.testToken,
		Username: "alice",
	})
	s.Require().NoError(err)
	s.Contains(output.Session.Players, "alice")
}

func (s *PokerServiceTestSuite) TestGetOverview_RegisteredUsernameLeftAlone() {
	session := s.emptySession()
	session.Players["alice"] = &models.Player{Username: "alice"}

	// No RegisterPlayer expectation: an already-present player must not
	// trigger a registration
	s.mockSessionRepo.EXPECT().EnsureSession(s.ctx, gomock.Any()).Return(session, nil)

	output, err := s.pokerService.GetOverview(s.ctx, &GetOverviewInput{
		Token:    s.testToken,
		Username: "alice",
	})
	s.Require().NoError(err)
	s.Len(output.Session.Players, 1)
}

func (s *PokerServiceTestSuite) TestClaimIdentity_HappyPath() {
	s.mockSessionRepo.EXPECT().RegisterPlayer(s.ctx, &sessionRepo.RegisterPlayerInput{
		Token:    s.testToken,
		Username: "alice",
	}).Return(&models.Player{Username: "alice"}, nil)

	output, err := s.pokerService.ClaimIdentity(s.ctx, &ClaimIdentityInput{
		Token:    s.testToken,
		Username: "alice",
	})
	s.Require().NoError(err)
	s.Equal("alice", output.Player.Username)
}

func (s *PokerServiceTestSuite) TestClaimIdentity_AlreadyRegistered() {
	_, err := s.pokerService.ClaimIdentity(s.ctx, &ClaimIdentityInput{
		Token:           s.testToken,
		CurrentUsername: "alice",
		Username:        "alice2",
	})
	s.ErrorIs(err, ErrAlreadyRegistered)
}

func (s *PokerServiceTestSuite) TestClaimIdentity_InvalidUsername() {
	for _, username := range []string{"", "   ", " \t "} {
		_, err := s.pokerService.ClaimIdentity(s.ctx, &ClaimIdentityInput{
			Token:    s.testToken,
			Username: username,
		})
		s.ErrorIs(err, ErrInvalidUsername)
	}
}

func (s *PokerServiceTestSuite) TestClaimIdentity_SessionNotFound() {
	s.mockSessionRepo.EXPECT().RegisterPlayer(s.ctx, gomock.Any()).
		Return(nil, sessionRepo.ErrSessionNotFound)

	_, err := s.pokerService.ClaimIdentity(s.ctx, &ClaimIdentityInput{
		Token:    "bogus-token",
		Username: "alice",
	})
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *PokerServiceTestSuite) TestAddTasks_SplitsTrimsAndDropsBlanks() {
	s.mockSessionRepo.EXPECT().AppendTasks(s.ctx, &sessionRepo.AppendTasksInput{
		Token:        s.testToken,
		Descriptions: []string{"a", "b", "c"},
	}).Return(nil)

	output, err := s.pokerService.AddTasks(s.ctx, &AddTasksInput{
		Token:   s.testToken,
		RawText: "a\n\nb \n  \nc",
	})
	s.Require().NoError(err)
	s.Equal(3, output.Added)
}

func (s *PokerServiceTestSuite) TestAddTasks_EmptyInputAddsNothing() {
	s.mockSessionRepo.EXPECT().AppendTasks(s.ctx, &sessionRepo.AppendTasksInput{
		Token:        s.testToken,
		Descriptions: []string{},
	}).Return(nil)

	output, err := s.pokerService.AddTasks(s.ctx, &AddTasksInput{
		Token:   s.testToken,
		RawText: "",
	})
	s.Require().NoError(err)
	s.Equal(0, output.Added)
}

func (s *PokerServiceTestSuite) TestTaskCount() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, &sessionRepo.GetSessionInput{
		Token: s.testToken,
	}).Return(s.sessionWithTasks("a", "b"), nil)

	output, err := s.pokerService.TaskCount(s.ctx, &TaskCountInput{Token: s.testToken})
	s.Require().NoError(err)
	s.Equal(2, output.Count)
}

func (s *PokerServiceTestSuite) TestStartEstimation_HappyPath() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, gomock.Any()).
		Return(s.sessionWithTasks("task one"), nil)

	output, err := s.pokerService.StartEstimation(s.ctx, &StartEstimationInput{Token: s.testToken})
	s.Require().NoError(err)
	s.Equal(0, output.TaskIndex)
}

func (s *PokerServiceTestSuite) TestStartEstimation_NoTasks() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, gomock.Any()).
		Return(s.emptySession(), nil)

	_, err := s.pokerService.StartEstimation(s.ctx, &StartEstimationInput{Token: s.testToken})
	s.ErrorIs(err, ErrNoTasks)
}

func (s *PokerServiceTestSuite) TestGetRound_HappyPath() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, gomock.Any()).
		Return(s.sessionWithTasks("task one", "task two"), nil)

	output, err := s.pokerService.GetRound(s.ctx, &GetRoundInput{
		Token:     s.testToken,
		TaskIndex: 1,
	})
	s.Require().NoError(err)
	s.Equal("task two", output.Task.Description)
	s.Equal(s.defaultCards, output.Cards)
}

func (s *PokerServiceTestSuite) TestGetRound_IndexOutOfRange() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, gomock.Any()).
		Return(s.sessionWithTasks("task one"), nil).Times(2)

	_, err := s.pokerService.GetRound(s.ctx, &GetRoundInput{Token: s.testToken, TaskIndex: 1})
	s.ErrorIs(err, ErrTaskIndexOutOfRange)

	_, err = s.pokerService.GetRound(s.ctx, &GetRoundInput{Token: s.testToken, TaskIndex: -1})
	s.ErrorIs(err, ErrTaskIndexOutOfRange)
}

func (s *PokerServiceTestSuite) TestVote_HappyPath() {
	s.mockSessionRepo.EXPECT().SetVote(s.ctx, &sessionRepo.SetVoteInput{
		Token:     s.testToken,
		TaskIndex: 0,
		Username:  "alice",
		Points:    8,
	}).Return(nil)

	_, err := s.pokerService.Vote(s.ctx, &VoteInput{
		Token:     s.testToken,
		TaskIndex: 0,
		Username:  "alice",
		Points:    8,
	})
	s.NoError(err)
}

func (s *PokerServiceTestSuite) TestVote_IndexOutOfRange() {
	s.mockSessionRepo.EXPECT().SetVote(s.ctx, gomock.Any()).
		Return(sessionRepo.ErrTaskIndexOutOfRange)

	_, err := s.pokerService.Vote(s.ctx, &VoteInput{
		Token:     s.testToken,
		TaskIndex: 99,
		Username:  "alice",
		Points:    8,
	})
	s.ErrorIs(err, ErrTaskIndexOutOfRange)
}

func (s *PokerServiceTestSuite) TestGetResults_HasNext() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, gomock.Any()).
		Return(s.sessionWithTasks("a", "b", "c"), nil).Times(2)

	output, err := s.pokerService.GetResults(s.ctx, &GetResultsInput{Token: s.testToken, TaskIndex: 1})
	s.Require().NoError(err)
	s.True(output.HasNext)

	output, err = s.pokerService.GetResults(s.ctx, &GetResultsInput{Token: s.testToken, TaskIndex: 2})
	s.Require().NoError(err)
	s.False(output.HasNext)
}

func (s *PokerServiceTestSuite) TestGetResults_IndexOutOfRange() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, gomock.Any()).
		Return(s.sessionWithTasks("a", "b", "c"), nil).Times(2)

	_, err := s.pokerService.GetResults(s.ctx, &GetResultsInput{Token: s.testToken, TaskIndex: 3})
	s.ErrorIs(err, ErrTaskIndexOutOfRange)

	_, err = s.pokerService.GetResults(s.ctx, &GetResultsInput{Token: s.testToken, TaskIndex: -1})
	s.ErrorIs(err, ErrTaskIndexOutOfRange)
}

func (s *PokerServiceTestSuite) TestExportSession_HappyPath() {
	session := s.sessionWithTasks("task one")
	session.Players["alice"] = &models.Player{Username: "alice"}
	session.Tasks[0].Votes["alice"] = 5

	s.mockSessionRepo.EXPECT().GetSession(s.ctx, &sessionRepo.GetSessionInput{
		Token: s.testToken,
	}).Return(session, nil)

	output, err := s.pokerService.ExportSession(s.ctx, &ExportSessionInput{Token: s.testToken})
	s.Require().NoError(err)
	s.Len(output.Tasks, 1)
	s.Equal(map[string]int{"alice": 5}, output.Tasks[0].Votes)
	s.Contains(output.Players, "alice")
}

func (s *PokerServiceTestSuite) TestSetDeck_FiltersAndTagsByOriginalPosition() {
	// Dropped tokens still advance the tag cycle: "x" burns danger and
	// "" burns warning
	s.mockSessionRepo.EXPECT().SetDeck(s.ctx, &sessionRepo.SetDeckInput{
		Token: s.testToken,
		Cards: []models.Card{
			{Value: "1", Tag: "success"},
			{Value: "2", Tag: "primary"},
			{Value: "3", Tag: "info"},
		},
	}).Return(nil)

	output, err := s.pokerService.SetDeck(s.ctx, &SetDeckInput{
		Token:    s.testToken,
		RawCards: "1,x,2,,3",
	})
	s.Require().NoError(err)
	s.Len(output.Cards, 3)
}

func (s *PokerServiceTestSuite) TestSetDeck_AllInvalidYieldsEmptyDeck() {
	s.mockSessionRepo.EXPECT().SetDeck(s.ctx, &sessionRepo.SetDeckInput{
		Token: s.testToken,
		Cards: []models.Card{},
	}).Return(nil)

	output, err := s.pokerService.SetDeck(s.ctx, &SetDeckInput{
		Token:    s.testToken,
		RawCards: "x, 1 ,poker",
	})
	s.Require().NoError(err)
	s.Empty(output.Cards)
}

func (s *PokerServiceTestSuite) TestGetDeck_HappyPath() {
	s.mockSessionRepo.EXPECT().GetSession(s.ctx, gomock.Any()).
		Return(s.emptySession(), nil)

	output, err := s.pokerService.GetDeck(s.ctx, &GetDeckInput{Token: s.testToken})
	s.Require().NoError(err)
	s.Equal(s.defaultCards, output.Cards)
}

func (s *PokerServiceTestSuite) TestResetSession_HappyPath() {
	s.mockSessionRepo.EXPECT().DeleteSession(s.ctx, &sessionRepo.DeleteSessionInput{
		Token: s.testToken,
	}).Return(nil)

	_, err := s.pokerService.ResetSession(s.ctx, &ResetSessionInput{Token: s.testToken})
	s.NoError(err)
}

// TestCreateSession_UniqueTokens runs against the real generator and
// store: tokens from repeated creates must be pairwise distinct
func TestCreateSession_UniqueTokens(t *testing.T) {
	svc, err := New(&Config{
		SessionRepo:   sessionRepo.NewMemory(),
		Clock:         &clockStub{},
		UUIDGenerator: uuid.New(),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		output, err := svc.CreateSession(context.Background(), &CreateSessionInput{})
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if seen[output.Token] {
			t.Fatalf("duplicate token %q on iteration %d", output.Token, i)
		}
		seen[output.Token] = true
	}

	if len(seen) != 100 {
		t.Fatalf("expected 100 distinct tokens, got %d", len(seen))
	}
}

type clockStub struct{}

func (c *clockStub) Now() time.Time {
	return time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC)
}
