package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizops-service/internal/app"
	"quizops-service/internal/domain"
	pgstore "quizops-service/internal/infra/postgres"
	pgmigrations "quizops-service/internal/infra/postgres/migrations"
	rediscache "quizops-service/internal/infra/redis"
	"quizops-service/internal/seed"
)

func TestAttemptLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateSchema(t, ctx, db)

	quizID, err := seed.Apply(ctx, db, sampleSeed())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	catalog := rediscache.NewCatalogCache(redisClient, pgstore.NewCatalog(pool), 5*time.Minute)
	store := pgstore.NewAttemptStore(db)
	service := app.NewAttemptService(store, catalog)

	keys, err := catalog.AnswerKeys(ctx, quizID)
	if err != nil {
		t.Fatalf("answer keys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(keys))
	}

	attempt, err := service.CreateAttempt(ctx, quizID, "alice")
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	if attempt.UserID == nil {
		t.Fatalf("expected attributed attempt")
	}

	// Two correct answers, one out-of-range index that can never match.
	if err := service.RecordAnswer(ctx, attempt.ID, keys[0].QuestionID, keys[0].CorrectIndex); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := service.RecordAnswer(ctx, attempt.ID, keys[1].QuestionID, keys[1].CorrectIndex); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := service.RecordAnswer(ctx, attempt.ID, keys[2].QuestionID, 9); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Overwriting before submission must replace, not duplicate.
	if err := service.RecordAnswer(ctx, attempt.ID, keys[1].QuestionID, keys[1].CorrectIndex+1); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := service.RecordAnswer(ctx, attempt.ID, keys[1].QuestionID, keys[1].CorrectIndex); err != nil {
		t.Fatalf("overwrite back: %v", err)
	}

	result, err := service.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 2 || result.MaxScore != 3 {
		t.Fatalf("expected 2/3, got %d/%d", result.Score, result.MaxScore)
	}

	sealed, err := store.Attempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !sealed.Sealed() || sealed.Score == nil || *sealed.Score != 2 || sealed.MaxScore == nil || *sealed.MaxScore != 3 {
		t.Fatalf("expected persisted 2/3, got %+v", sealed)
	}

	if err := service.RecordAnswer(ctx, attempt.ID, keys[0].QuestionID, 1); err != domain.ErrAttemptSubmitted {
		t.Fatalf("expected sealed attempt to reject writes, got %v", err)
	}

	resubmit, err := service.SubmitAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if resubmit.Score != result.Score || resubmit.MaxScore != result.MaxScore {
		t.Fatalf("expected recompute to match, got %+v then %+v", result, resubmit)
	}

	// A fresh attempt with no answers scores zero over the full question count.
	empty, err := service.CreateAttempt(ctx, quizID, "alice")
	if err != nil {
		t.Fatalf("create empty attempt: %v", err)
	}
	if empty.UserID == nil || *empty.UserID != *attempt.UserID {
		t.Fatalf("expected alice resolved to the same user")
	}
	emptyResult, err := service.SubmitAttempt(ctx, empty.ID)
	if err != nil {
		t.Fatalf("submit empty: %v", err)
	}
	if emptyResult.Score != 0 || emptyResult.MaxScore != 3 {
		t.Fatalf("expected 0/3, got %d/%d", emptyResult.Score, emptyResult.MaxScore)
	}
}

func TestReferenceErrorsEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	db := openBun(pgURL)
	defer db.Close()
	migrateSchema(t, ctx, db)

	quizID, err := seed.Apply(ctx, db, sampleSeed())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewAttemptStore(db)
	service := app.NewAttemptService(store, pgstore.NewCatalog(pool))

	if _, err := service.CreateAttempt(ctx, uuid.NewString(), ""); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if err := service.RecordAnswer(ctx, uuid.NewString(), uuid.NewString(), 0); err != domain.ErrAttemptNotFound {
		t.Fatalf("expected attempt not found, got %v", err)
	}
	if _, err := service.SubmitAttempt(ctx, uuid.NewString()); err != domain.ErrAttemptNotFound {
		t.Fatalf("expected attempt not found, got %v", err)
	}

	attempt, err := service.CreateAttempt(ctx, quizID, "")
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	if err := service.RecordAnswer(ctx, attempt.ID, uuid.NewString(), 0); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizops"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizops?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func openBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func migrateSchema(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleSeed() seed.File {
	return seed.File{
		Title:       "SQL & Python for DE",
		Description: "Warehouse fundamentals",
		Questions: []seed.Question{
			{Prompt: "Pick 0", Options: []string{"a", "b", "c"}, CorrectIndex: 0, Topic: "sql", Difficulty: 1},
			{Prompt: "Pick 1", Options: []string{"a", "b", "c"}, CorrectIndex: 1, Topic: "sql", Difficulty: 1},
			{Prompt: "Pick 2", Options: []string{"a", "b", "c"}, CorrectIndex: 2, Topic: "python", Difficulty: 2},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
