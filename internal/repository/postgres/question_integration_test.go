package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miskar/quizdeck/internal/auth"
	"github.com/miskar/quizdeck/internal/config"
	"github.com/miskar/quizdeck/internal/database"
	"github.com/miskar/quizdeck/internal/domain"
)

// These tests need a real PostgreSQL with migrations applied. They are
// skipped unless QUIZDECK_INTEGRATION=1.

func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("QUIZDECK_INTEGRATION") != "1" {
		t.Skip("set QUIZDECK_INTEGRATION=1 to run integration tests")
	}
	pool, err := database.ConnectPostgres(config.Load().Postgres)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func seedCategory(t *testing.T, pool *pgxpool.Pool, name string) int {
	t.Helper()
	var id int
	err := pool.QueryRow(context.Background(), `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return id
}

func rowCounts(t *testing.T, pool *pgxpool.Pool) (questions, options int) {
	t.Helper()
	if err := pool.QueryRow(context.Background(), `SELECT count(*) FROM questions`).Scan(&questions); err != nil {
		t.Fatalf("count questions: %v", err)
	}
	if err := pool.QueryRow(context.Background(), `SELECT count(*) FROM options`).Scan(&options); err != nil {
		t.Fatalf("count options: %v", err)
	}
	return questions, options
}

func validInput(category string) domain.QuestionInput {
	return domain.QuestionInput{
		Text:       "Which planet is known as the red planet?",
		Category:   category,
		Difficulty: domain.DifficultyEasy,
		Options: []domain.Option{
			{Text: "Mars", IsCorrect: true},
			{Text: "Venus"},
			{Text: "Jupiter"},
			{Text: "Saturn"},
		},
	}
}

func TestAddQuestionStoresFourOptions(t *testing.T) {
	pool := integrationPool(t)
	repo := NewQuestionRepository(pool)
	seedCategory(t, pool, "it-science")
	ctx := context.Background()

	id, err := repo.AddQuestion(ctx, validInput("it-science"))
	if err != nil {
		t.Fatalf("AddQuestion() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.DeleteQuestion(ctx, id) })

	opts, err := repo.GetOptions(ctx, id)
	if err != nil {
		t.Fatalf("GetOptions() error = %v", err)
	}
	if len(opts) != domain.OptionCount {
		t.Fatalf("stored %d options, want %d", len(opts), domain.OptionCount)
	}
	correct := 0
	for _, o := range opts {
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		t.Errorf("stored %d correct options, want exactly 1", correct)
	}
	if opts[0].Text != "Mars" {
		t.Errorf("options out of insertion order: first = %q, want Mars", opts[0].Text)
	}
}

func TestAddQuestionUnknownCategoryIsAtomic(t *testing.T) {
	pool := integrationPool(t)
	repo := NewQuestionRepository(pool)
	ctx := context.Background()

	qBefore, oBefore := rowCounts(t, pool)

	_, err := repo.AddQuestion(ctx, validInput("it-no-such-category"))
	if !errors.Is(err, domain.ErrUnknownCategory) {
		t.Fatalf("AddQuestion() error = %v, want ErrUnknownCategory", err)
	}

	qAfter, oAfter := rowCounts(t, pool)
	if qAfter != qBefore || oAfter != oBefore {
		t.Errorf("row counts changed: questions %d->%d, options %d->%d", qBefore, qAfter, oBefore, oAfter)
	}
}

func TestUpdateQuestionFailureLeavesOptionsIntact(t *testing.T) {
	pool := integrationPool(t)
	repo := NewQuestionRepository(pool)
	seedCategory(t, pool, "it-science")
	ctx := context.Background()

	id, err := repo.AddQuestion(ctx, validInput("it-science"))
	if err != nil {
		t.Fatalf("AddQuestion() error = %v", err)
	}
	t.Cleanup(func() { _ = repo.DeleteQuestion(ctx, id) })

	// Unknown category aborts the transaction after validation would have
	// allowed the option rewrite; the original options must survive.
	in := validInput("it-no-such-category")
	if err := repo.UpdateQuestion(ctx, id, in); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Fatalf("UpdateQuestion() error = %v, want ErrUnknownCategory", err)
	}

	opts, err := repo.GetOptions(ctx, id)
	if err != nil {
		t.Fatalf("GetOptions() error = %v", err)
	}
	if len(opts) != domain.OptionCount || opts[0].Text != "Mars" {
		t.Errorf("options after failed update = %+v, want original four", opts)
	}
}

func TestDeleteQuestionCascades(t *testing.T) {
	pool := integrationPool(t)
	repo := NewQuestionRepository(pool)
	seedCategory(t, pool, "it-science")
	ctx := context.Background()

	id, err := repo.AddQuestion(ctx, validInput("it-science"))
	if err != nil {
		t.Fatalf("AddQuestion() error = %v", err)
	}

	if err := repo.DeleteQuestion(ctx, id); err != nil {
		t.Fatalf("DeleteQuestion() error = %v", err)
	}

	var orphans int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM options WHERE question_id = $1`, id).Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Errorf("%d option rows survived the cascade, want 0", orphans)
	}

	if err := repo.DeleteQuestion(ctx, id); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Errorf("second delete error = %v, want ErrQuestionNotFound", err)
	}
}

func TestFetchForPlayerFilters(t *testing.T) {
	pool := integrationPool(t)
	repo := NewQuestionRepository(pool)
	catID := seedCategory(t, pool, "it-filter")
	ctx := context.Background()

	var ids []int
	for i, diff := range []string{domain.DifficultyEasy, domain.DifficultyHard} {
		in := validInput("it-filter")
		in.Text = fmt.Sprintf("filter question %d", i)
		in.Difficulty = diff
		id, err := repo.AddQuestion(ctx, in)
		if err != nil {
			t.Fatalf("AddQuestion() error = %v", err)
		}
		ids = append(ids, id)
	}
	t.Cleanup(func() {
		for _, id := range ids {
			_ = repo.DeleteQuestion(ctx, id)
		}
	})

	hard := domain.DifficultyHard
	got, err := repo.FetchForPlayer(ctx, domain.QuestionFilter{CategoryID: &catID, Difficulty: &hard})
	if err != nil {
		t.Fatalf("FetchForPlayer() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("fetched %d questions, want 1", len(got))
	}
	if len(got[0].Options) != domain.OptionCount {
		t.Errorf("fetched question has %d options, want %d", len(got[0].Options), domain.OptionCount)
	}
}

// queryLog records every statement the pool issues, so a test can count
// how many touched a given table.
type queryLog struct {
	mu   sync.Mutex
	sqls []string
}

func (l *queryLog) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	l.mu.Lock()
	l.sqls = append(l.sqls, data.SQL)
	l.mu.Unlock()
	return ctx
}

func (l *queryLog) TraceQueryEnd(context.Context, *pgx.Conn, pgx.TraceQueryEndData) {}

func (l *queryLog) reset() {
	l.mu.Lock()
	l.sqls = nil
	l.mu.Unlock()
}

func (l *queryLog) count(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, sql := range l.sqls {
		if strings.Contains(sql, substr) {
			n++
		}
	}
	return n
}

func tracedPool(t *testing.T, log *queryLog) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("QUIZDECK_INTEGRATION") != "1" {
		t.Skip("set QUIZDECK_INTEGRATION=1 to run integration tests")
	}
	pg := config.Load().Postgres
	poolCfg, err := pgxpool.ParseConfig(fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		pg.User, pg.Password, pg.Host, pg.Port, pg.DBName,
	))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	poolCfg.ConnConfig.Tracer = log
	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestFetchForPlayerIsOneQuery(t *testing.T) {
	log := &queryLog{}
	pool := tracedPool(t, log)
	repo := NewQuestionRepository(pool)
	catID := seedCategory(t, pool, "it-one-query")
	ctx := context.Background()

	const n = 6
	var ids []int
	for i := 0; i < n; i++ {
		in := validInput("it-one-query")
		in.Text = fmt.Sprintf("one-query question %d", i)
		id, err := repo.AddQuestion(ctx, in)
		if err != nil {
			t.Fatalf("AddQuestion() error = %v", err)
		}
		ids = append(ids, id)
	}
	t.Cleanup(func() {
		for _, id := range ids {
			_ = repo.DeleteQuestion(ctx, id)
		}
	})

	log.reset()
	got, err := repo.FetchForPlayer(ctx, domain.QuestionFilter{CategoryID: &catID})
	if err != nil {
		t.Fatalf("FetchForPlayer() error = %v", err)
	}
	if len(got) != n {
		t.Fatalf("fetched %d questions, want %d", len(got), n)
	}

	// One joined statement regardless of result-set size; a second
	// question-touching statement means an N+1 regression.
	if c := log.count("JOIN options"); c != 1 {
		t.Errorf("fetch issued %d joined statements, want 1", c)
	}
	if c := log.count("FROM options"); c != 0 {
		t.Errorf("fetch issued %d per-question option queries, want 0", c)
	}
}

func TestAuthenticateWrongPasswordYieldsNil(t *testing.T) {
	pool := integrationPool(t)
	repo := NewUserRepository(pool, auth.NewBcryptHasher(4))
	ctx := context.Background()

	username := fmt.Sprintf("it-alice-%d", time.Now().UnixNano())
	if err := repo.CreateUser(ctx, username, "correct horse", false); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	})

	user, err := repo.Authenticate(ctx, username, "wrong")
	if err != nil {
		t.Fatalf("Authenticate() error = %v, wrong password must not be an error", err)
	}
	if user != nil {
		t.Errorf("Authenticate() = %+v, want nil", user)
	}

	user, err = repo.Authenticate(ctx, username, "correct horse")
	if err != nil || user == nil {
		t.Fatalf("Authenticate() = %v, %v; want the user", user, err)
	}
	if user.IsAdmin {
		t.Error("player account resolved as admin")
	}

	if err := repo.CreateUser(ctx, username, "whatever", false); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrUsernameTaken", err)
	}
}
