package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fortuna/services/player-stats-service/internal/consumer"
	"github.com/fortuna/services/player-stats-service/internal/ingest"
	"github.com/fortuna/services/player-stats-service/internal/logger"
	"github.com/fortuna/services/player-stats-service/internal/service"
	"github.com/fortuna/services/player-stats-service/internal/store/memory"
	"github.com/fortuna/services/player-stats-service/pkg/models"
)

// mapCache is an in-memory ReportCache
type mapCache struct {
	reports     map[string]models.PlayerStatsReport
	gets, sets  int
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{reports: make(map[string]models.PlayerStatsReport)}
}

func (c *mapCache) Get(ctx context.Context, name string) (*models.PlayerStatsReport, bool, error) {
	c.gets++
	r, ok := c.reports[name]
	if !ok {
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *mapCache) Set(ctx context.Context, report models.PlayerStatsReport) error {
	c.sets++
	c.reports[report.PlayerName] = report
	return nil
}

func (c *mapCache) Invalidate(ctx context.Context, names ...string) error {
	for _, n := range names {
		delete(c.reports, n)
	}
	c.invalidated = append(c.invalidated, names...)
	return nil
}

var sampleGame = models.BoxCounts{
	FTM: 10, FTA: 20, TwoPM: 5, TwoPA: 10, ThreePM: 2, ThreePA: 6,
	REB: 7, BLK: 1, AST: 3, STL: 2, TOV: 1,
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	players := []models.Player{
		{Name: "Ana Lopez", Position: models.PositionPointGuard},
		{Name: "Bea Smith", Position: models.PositionCenter},
	}
	rows := []models.StatRow{
		{PlayerName: "Ana Lopez", Line: 2, BoxCounts: sampleGame},
		{PlayerName: "Bea Smith", Line: 3, BoxCounts: models.BoxCounts{TwoPM: 1, TwoPA: 1}},
		{PlayerName: "Bea Smith", Line: 4, BoxCounts: models.BoxCounts{TwoPM: 2, TwoPA: 10}},
	}
	if _, err := store.ReplaceSource(context.Background(), "week1.csv", players, rows); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestPlayerReport(t *testing.T) {
	svc := service.New(seededStore(t), nil, 2, logger.NewNop())

	report, err := svc.PlayerReport(context.Background(), "Ana Lopez")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.GamesPlayed != 1 || report.Traditional.Points != 26 || report.Advanced.TrueShootingPercentage != 51 {
		t.Errorf("report = %+v", report)
	}

	bea, err := svc.PlayerReport(context.Background(), " Bea Smith ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bea.GamesPlayed != 2 || bea.Traditional.TwoPoints.ShootingPercentage != 27.3 {
		t.Errorf("bea = %+v", bea.Traditional.TwoPoints)
	}
}

func TestPlayerReportErrors(t *testing.T) {
	store := seededStore(t)
	if err := store.UpsertPlayer(context.Background(), models.Player{Name: "Cam Reyes", Position: models.PositionSmallForward}); err != nil {
		t.Fatal(err)
	}
	svc := service.New(store, nil, 2, logger.NewNop())

	tests := []struct {
		name    string
		player  string
		wantErr error
	}{
		{"unknown player", "Nobody", models.ErrUnknownPlayer},
		{"registered without games", "Cam Reyes", models.ErrNoGames},
		{"blank name", "  ", service.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlayerReport(context.Background(), tt.player)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlayerReportUsesCache(t *testing.T) {
	cache := newMapCache()
	svc := service.New(seededStore(t), cache, 2, logger.NewNop())
	ctx := context.Background()

	first, err := svc.PlayerReport(ctx, "Ana Lopez")
	if err != nil {
		t.Fatal(err)
	}
	if cache.sets != 1 {
		t.Fatalf("sets = %d, want 1", cache.sets)
	}

	// a cached value is served as is
	stale := first
	stale.GamesPlayed = 99
	cache.reports["Ana Lopez"] = stale

	second, err := svc.PlayerReport(ctx, "Ana Lopez")
	if err != nil {
		t.Fatal(err)
	}
	if second.GamesPlayed != 99 || cache.sets != 1 {
		t.Errorf("expected cache hit, got games=%d sets=%d", second.GamesPlayed, cache.sets)
	}
}

func TestAllReports(t *testing.T) {
	store := seededStore(t)
	if err := store.UpsertPlayer(context.Background(), models.Player{Name: "Aaron Zero", Position: models.PositionCenter}); err != nil {
		t.Fatal(err)
	}
	svc := service.New(store, nil, 4, logger.NewNop())

	reports, err := svc.AllReports(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2 (players without games are skipped)", len(reports))
	}
	if reports[0].PlayerName != "Ana Lopez" || reports[1].PlayerName != "Bea Smith" {
		t.Errorf("order = %s, %s", reports[0].PlayerName, reports[1].PlayerName)
	}
}

func TestAllReportsManyPlayers(t *testing.T) {
	store := memory.New()
	var players []models.Player
	var rows []models.StatRow
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("Player %02d", i)
		players = append(players, models.Player{Name: name, Position: models.PositionShootingGuard})
		rows = append(rows, models.StatRow{PlayerName: name, Line: i + 2, BoxCounts: sampleGame})
	}
	if _, err := store.ReplaceSource(context.Background(), "big.csv", players, rows); err != nil {
		t.Fatal(err)
	}

	svc := service.New(store, nil, 3, logger.NewNop())
	reports, err := svc.AllReports(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 40 {
		t.Fatalf("got %d reports, want 40", len(reports))
	}
	for i, r := range reports {
		if r.PlayerName != fmt.Sprintf("Player %02d", i) || r.Advanced.Valorization != 19 {
			t.Errorf("report %d = %s val %v", i, r.PlayerName, r.Advanced.Valorization)
		}
	}
}

func TestRegisterPlayer(t *testing.T) {
	cache := newMapCache()
	svc := service.New(memory.New(), cache, 1, logger.NewNop())
	ctx := context.Background()

	player, err := svc.RegisterPlayer(ctx, models.Player{Name: " Dee Park ", Position: "pf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.Name != "Dee Park" || player.Position != models.PositionPowerForward {
		t.Errorf("player = %+v", player)
	}
	if len(cache.invalidated) != 1 {
		t.Errorf("invalidated = %v", cache.invalidated)
	}

	if _, err := svc.PlayerReport(ctx, "Dee Park"); !errors.Is(err, models.ErrNoGames) {
		t.Errorf("err = %v, want ErrNoGames", err)
	}

	for _, bad := range []models.Player{
		{Name: "", Position: "PG"},
		{Name: "Eve", Position: "wing"},
	} {
		if _, err := svc.RegisterPlayer(ctx, bad); !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("RegisterPlayer(%+v) err = %v, want ErrInvalidInput", bad, err)
		}
	}
}

type eventLog struct {
	events []models.IngestEvent
}

func (l *eventLog) Broadcast(event models.IngestEvent) {
	l.events = append(l.events, event)
}

func TestReingestInvalidatesPlayersDroppedFromSource(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()
	store := memory.New()
	cache := newMapCache()
	subscribers := &eventLog{}
	ing := ingest.New(store, consumer.NewDispatcher(cache, subscribers, log), log)
	svc := service.New(store, cache, 2, log)

	const header = "PLAYER,POSITION,FTM,FTA,2PM,2PA,3PM,3PA,REB,BLK,AST,STL,TOV\n"
	week1 := header +
		"Ana Lopez,PG,10,20,5,10,2,6,7,1,3,2,1\n" +
		"Bea Smith,C,1,2,6,9,0,0,11,3,1,0,2\n"
	if _, err := ing.Ingest(ctx, strings.NewReader(week1), "week1.csv"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.PlayerReport(ctx, "Bea Smith"); err != nil {
		t.Fatalf("warming Bea's report: %v", err)
	}
	if _, ok := cache.reports["Bea Smith"]; !ok {
		t.Fatal("Bea's report should be cached")
	}

	corrected := header + "Ana Lopez,PG,10,20,5,10,2,6,7,1,3,2,1\n"
	if _, err := ing.Ingest(ctx, strings.NewReader(corrected), "week1.csv"); err != nil {
		t.Fatal(err)
	}

	if _, ok := cache.reports["Bea Smith"]; ok {
		t.Error("Bea's cached report survived the re-ingestion that removed her rows")
	}
	if _, err := svc.PlayerReport(ctx, "Bea Smith"); !errors.Is(err, models.ErrNoGames) {
		t.Errorf("err = %v, want ErrNoGames", err)
	}

	last := subscribers.events[len(subscribers.events)-1]
	if !last.Touches([]string{"Bea Smith"}) {
		t.Errorf("broadcast %v does not reach Bea's subscribers", last.Players)
	}
}
