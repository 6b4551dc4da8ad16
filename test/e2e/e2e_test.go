// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loanflow-workers/internal/agent"
	"loanflow-workers/internal/common/config"
	"loanflow-workers/internal/common/database"
	"loanflow-workers/internal/common/logger"
	"loanflow-workers/internal/eligibility"
	"loanflow-workers/internal/models"
	"loanflow-workers/internal/store"

	// Import all worker packages
	createapplicationrecord "loanflow-workers/internal/workers/application/create-application-record"
	createdocumentrecord "loanflow-workers/internal/workers/application/create-document-record"
	generaterecommendations "loanflow-workers/internal/workers/application/generate-recommendations"
	runeligibilitydecision "loanflow-workers/internal/workers/application/run-eligibility-decision"
	sendnotification "loanflow-workers/internal/workers/application/send-notification"
	validateapplicationdata "loanflow-workers/internal/workers/application/validate-application-data"

	answerapplicationchat "loanflow-workers/internal/workers/ai-conversation/answer-application-chat"
	classifychatintent "loanflow-workers/internal/workers/ai-conversation/classify-chat-intent"
	queryapplicationcontext "loanflow-workers/internal/workers/ai-conversation/query-application-context"

	queryelasticsearch "loanflow-workers/internal/workers/data-access/query-elasticsearch"
	querypostgresql "loanflow-workers/internal/workers/data-access/query-postgresql"
)

var (
	zeebeClient zbc.Client
	zapLog      *zap.Logger

	// zeebeUp is settled by the connectivity phase; deployment is skipped
	// when the broker is down so the worker phase can still run against the
	// data stores alone.
	zeebeUp bool
)

// Seeded fixtures the worker phase runs against. The complete applicant
// passes every screening rule; the thin one fails age and documents.
const (
	seedCompleteApp = "APP-E2E-1001"
	seedThinApp     = "APP-E2E-1002"
)

// Logger adapters to bridge logger.Logger to worker-specific Logger interfaces
type answerApplicationChatLoggerAdapter struct {
	logger.Logger
}

func (a *answerApplicationChatLoggerAdapter) With(fields map[string]interface{}) answerapplicationchat.Logger {
	return &answerApplicationChatLoggerAdapter{a.Logger.With(fields)}
}

type classifyChatIntentLoggerAdapter struct {
	logger.Logger
}

func (a *classifyChatIntentLoggerAdapter) With(fields map[string]interface{}) classifychatintent.Logger {
	return &classifyChatIntentLoggerAdapter{a.Logger.With(fields)}
}

type queryApplicationContextLoggerAdapter struct {
	logger.Logger
}

func (a *queryApplicationContextLoggerAdapter) With(fields map[string]interface{}) queryapplicationcontext.Logger {
	return &queryApplicationContextLoggerAdapter{a.Logger.With(fields)}
}

func TestMain(m *testing.M) {
	var err error

	// Initialize logger
	zapLog, _ = zap.NewProduction()

	// Initialize Zeebe client with real connection. The gateway dials
	// lazily, so a missing broker surfaces at the topology probe, not here.
	zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         "localhost:26500",
		UsePlaintextConnection: true,
	})
	if err != nil {
		zapLog.Warn("⚠️ Zeebe client creation failed, BPMN deployment will be skipped", zap.Error(err))
		zeebeClient = nil
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if zeebeClient != nil {
		zeebeClient.Close()
	}
	os.Exit(code)
}

func TestFullE2E(t *testing.T) {
	_, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Load config
	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	t.Log("🚀 Starting FULL E2E Test with real services...")

	// 1. Check all external services are available
	assertAllServicesConnectivity(t, cfg)

	// 2. Create DB tables if needed and insert test data
	createDatabaseTables(t, cfg)

	// 3. Deploy all BPMN files
	deployAllBPMN(t, cfg, zapLog)

	// 4. Test all 11 workers with real execution
	testAllWorkers(t, cfg, zapLog)

	t.Log("✅ ALL TESTS PASSED — Full E2E workflow successful!")
}

func assertAllServicesConnectivity(t *testing.T, cfg *config.Config) {
	t.Log("🔍 Checking service connectivity...")

	// 🔧 FORCE LOCALHOST FOR E2E TESTS
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"

	// --- PostgreSQL ---
	db, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "❌ PostgreSQL client creation failed")
	if err := db.Ping(context.Background()); err != nil {
		db.Close()
		t.Skipf("⚠️ PostgreSQL not reachable on localhost:5432, start the local stack to run the e2e suite: %v", err)
	}
	db.Close()
	t.Log("✅ PostgreSQL connected")

	// --- Redis ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err, "❌ Redis client creation failed")
	if err := rdb.Ping(context.Background()); err != nil {
		rdb.Close()
		t.Skipf("⚠️ Redis not reachable on localhost:6379: %v", err)
	}
	rdb.Close()
	t.Log("✅ Redis connected")

	// --- Elasticsearch ---
	esURL := cfg.Database.Elasticsearch.GetURL()
	t.Logf("🔗 Elasticsearch URL: %s", esURL)

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	require.NoError(t, err, "❌ Elasticsearch client creation failed")

	res, err := es.Info()
	if err != nil {
		t.Skipf("⚠️ Elasticsearch not reachable on localhost:9200: %v", err)
	}
	assert.False(t, res.IsError(), "❌ Elasticsearch returned error")
	res.Body.Close()
	t.Log("✅ Elasticsearch connected")

	// --- Zeebe ---
	// The broker is only needed for deployment; the worker phase talks to
	// the data stores directly.
	zeebeUp = false
	if zeebeClient != nil {
		topoCtx, topoCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer topoCancel()
		if _, err := zeebeClient.NewTopologyCommand().Send(topoCtx); err != nil {
			t.Logf("⚠️ Zeebe topology request failed, BPMN deployment will be skipped: %v", err)
		} else {
			zeebeUp = true
			t.Log("✅ Zeebe connected")
		}
	}
}

// ==========================
// 2. Database Tables Setup + Test Data
// ==========================
func createDatabaseTables(t *testing.T, cfg *config.Config) {
	t.Log("🔧 Creating database tables and inserting test data...")

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	db := dbClient.DB

	// Create test tables if they don't exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS applications (
			application_id VARCHAR(64) PRIMARY KEY,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			age INTEGER NOT NULL DEFAULT 0,
			address TEXT NOT NULL DEFAULT '',
			region VARCHAR(100) NOT NULL DEFAULT '',
			employment_status VARCHAR(50) NOT NULL DEFAULT '',
			net_income DOUBLE PRECISION,
			obligations_ratio DOUBLE PRECISION,
			dependents INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id VARCHAR(64) PRIMARY KEY,
			application_id VARCHAR(64) NOT NULL REFERENCES applications(application_id),
			filename VARCHAR(255) NOT NULL,
			content_type VARCHAR(100) NOT NULL DEFAULT 'application/octet-stream',
			size_bytes BIGINT NOT NULL DEFAULT 0,
			extracted_text TEXT,
			preview TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id VARCHAR(64) PRIMARY KEY,
			application_id VARCHAR(64) NOT NULL,
			status VARCHAR(50) NOT NULL,
			label VARCHAR(50) NOT NULL,
			probability DOUBLE PRECISION NOT NULL DEFAULT 0,
			rationale TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, query := range queries {
		_, err := db.ExecContext(context.Background(), query)
		if err != nil {
			t.Logf("Warning: Failed to create table: %v", err)
		}
	}

	// Insert test data
	testData := []string{
		`INSERT INTO applications (application_id, full_name, age, address, region, employment_status, net_income, obligations_ratio, dependents)
		 VALUES ('APP-E2E-1001', 'Rosa Almeida', 34, '18 Harbor Lane, Eastbrook', 'north', 'employed', 4800.00, 0.21, 1)
		 ON CONFLICT (application_id) DO NOTHING`,
		`INSERT INTO applications (application_id, full_name, age, address, region, employment_status, net_income, obligations_ratio, dependents)
		 VALUES ('APP-E2E-1002', 'Miko Tan', 17, '', 'south', 'student', NULL, NULL, 0)
		 ON CONFLICT (application_id) DO NOTHING`,
		`INSERT INTO documents (id, application_id, filename, content_type, size_bytes, extracted_text, preview)
		 VALUES ('DOC-E2E-0001', 'APP-E2E-1001', 'bank_statement_march.pdf', 'application/pdf', 48213,
		         'Bank statement for March. Closing balance 5,412.80 on account 00981.',
		         'Bank statement for March. Closing balance 5,412.80 on account 00981.')
		 ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO documents (id, application_id, filename, content_type, size_bytes, extracted_text, preview)
		 VALUES ('DOC-E2E-0002', 'APP-E2E-1001', 'payslip_march.txt', 'text/plain', 1843,
		         'Payslip for March. Net salary 4,800.00 after deductions.',
		         'Payslip for March. Net salary 4,800.00 after deductions.')
		 ON CONFLICT (id) DO NOTHING`,
	}

	for _, query := range testData {
		_, err := db.ExecContext(context.Background(), query)
		if err != nil {
			t.Logf("Warning: Failed to insert test data: %v", err)
		}
	}

	t.Log("✅ Database tables created/verified with test data")
}

// ==========================
// 3. Deploy All BPMN Files
// ==========================
func deployAllBPMN(t *testing.T, _ *config.Config, _ *zap.Logger) {
	t.Log("🏗️ Deploying BPMN files...")

	if !zeebeUp {
		t.Log("⚠️ Zeebe unavailable, skipping BPMN deployment")
		return
	}

	client := zeebeClient

	// Try multiple possible paths for BPMN directory
	possiblePaths := []string{
		"bpmn",
		"../bpmn",
		"../../bpmn",
		"./bpmn",
	}

	var bpmnDir string
	var files []os.DirEntry

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			entries, err := os.ReadDir(path)
			if err == nil {
				bpmnDir = path
				files = entries
				t.Logf("📁 Found BPMN directory: %s", bpmnDir)
				break
			}
		}
	}

	if bpmnDir == "" {
		t.Log("⚠️ BPMN directory not found in any expected location, skipping deployment")
		return
	}

	bpmnCount := 0
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(f.Name()), ".bpmn") {
			continue
		}

		path := fmt.Sprintf("%s/%s", bpmnDir, f.Name())
		t.Logf("📄 Deploying BPMN: %s", path)

		_, err := client.NewDeployResourceCommand().AddResourceFile(path).Send(context.Background())
		if err != nil {
			t.Logf("⚠️ Failed to deploy BPMN %s: %v", f.Name(), err)
			// Continue with other files instead of failing
		} else {
			t.Logf("✅ Deployed: %s", f.Name())
			bpmnCount++
		}
	}

	if bpmnCount == 0 {
		t.Log("ℹ️ No BPMN files were successfully deployed")
	} else {
		t.Logf("✅ Successfully deployed %d BPMN files", bpmnCount)
	}
}

// ==========================
// 4. Test All 11 Workers
// ==========================
func testAllWorkers(t *testing.T, cfg *config.Config, log *zap.Logger) {
	t.Log("🧪 Testing all 11 workers with real execution...")

	// Get clients for all services
	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer dbClient.Close()

	db := dbClient.DB

	esURL := cfg.Database.Elasticsearch.GetURL()
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
	require.NoError(t, err)

	rdbClient, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdbClient.Close()

	rdb := rdbClient.GetClient()

	// Worker test cases. The order follows the evaluation pipeline: intake
	// first, then screening, documents, decision, and finally the
	// conversation and reporting workers that read what the pipeline wrote.
	testCases := []struct {
		name   string
		testFn func(*testing.T, *config.Config, *zap.Logger, *sql.DB, *elasticsearch.Client, *redis.Client)
	}{
		{"create-application-record", testCreateApplicationRecord},
		{"validate-application-data", testValidateApplicationData},
		{"create-document-record", testCreateDocumentRecord},
		{"run-eligibility-decision", testRunEligibilityDecision},
		{"generate-recommendations", testGenerateRecommendations},
		{"send-notification", testSendNotification},
		{"classify-chat-intent", testClassifyChatIntent},
		{"query-application-context", testQueryApplicationContext},
		{"answer-application-chat", testAnswerApplicationChat},
		{"query-postgresql", testQueryPostgreSQL},
		{"query-elasticsearch", testQueryElasticsearch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.testFn(t, cfg, log, db, es, rdb)
		})
	}
}

// ==========================
// Worker Test Functions
// ==========================

func testCreateApplicationRecord(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	handler := createapplicationrecord.NewHandler(createapplicationrecord.LoadConfig(), store.New(db), logger.NewZapAdapter(log))

	// A fresh id per run keeps reruns against the same database green.
	appID := fmt.Sprintf("APP-E2E-%d", time.Now().UnixNano())
	income := 4100.0
	ratio := 0.28

	input := &createapplicationrecord.Input{
		ApplicationID:    appID,
		FullName:         "Dana Whitfield",
		Age:              41,
		Address:          "7 Canal Street, Meridian",
		Region:           "north",
		EmploymentStatus: "employed",
		NetIncome:        &income,
		ObligationsRatio: &ratio,
		Dependents:       2,
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, appID, output.ApplicationID)
	assert.Equal(t, "received", output.ApplicationStatus)
	assert.NotEmpty(t, output.CreatedAt)

	// Same id again must be rejected, not overwritten.
	_, err = handler.Execute(context.Background(), input)
	assert.ErrorIs(t, err, store.ErrDuplicateApplication)
}

func testValidateApplicationData(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	handler := validateapplicationdata.NewHandler(validateapplicationdata.LoadConfig(), store.New(db), logger.NewZapAdapter(log))

	// Complete applicant: every rule passes.
	output, err := handler.Execute(context.Background(), &validateapplicationdata.Input{ApplicationID: seedCompleteApp})
	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.Empty(t, output.Validation.FailChecks)
	assert.Contains(t, output.Validation.PassChecks, eligibility.CheckIncomeMeetsThreshold)

	// Thin applicant: underage, no address, no documents.
	output, err = handler.Execute(context.Background(), &validateapplicationdata.Input{ApplicationID: seedThinApp})
	require.NoError(t, err)
	assert.False(t, output.IsValid)
	assert.Contains(t, output.Validation.FailChecks, eligibility.CheckAgeInvalid)
	assert.NotEmpty(t, output.Validation.FailChecks)

	// Unknown applicant is a job error, not an invalid outcome.
	_, err = handler.Execute(context.Background(), &validateapplicationdata.Input{ApplicationID: "APP-E2E-MISSING"})
	assert.ErrorIs(t, err, store.ErrApplicationNotFound)
}

func testCreateDocumentRecord(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	handler := createdocumentrecord.NewHandler(createdocumentrecord.LoadConfig(), store.New(db), es, logger.NewZapAdapter(log))

	content := "Payslip for April. Net salary 4,800.00 transferred to bank account 00981."
	input := &createdocumentrecord.Input{
		ApplicationID: seedCompleteApp,
		Filename:      fmt.Sprintf("payslip-april-%d.txt", time.Now().UnixNano()),
		ContentType:   "text/plain",
		ContentBase64: base64.StdEncoding.EncodeToString([]byte(content)),
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.NotEmpty(t, output.DocumentID)
	assert.Equal(t, seedCompleteApp, output.ApplicationID)
	assert.Equal(t, int64(len(content)), output.SizeBytes)
	assert.True(t, output.HasExtractedText)

	// Uploads against unknown applications are rejected before any write.
	input.ApplicationID = "APP-E2E-MISSING"
	_, err = handler.Execute(context.Background(), input)
	assert.ErrorIs(t, err, store.ErrApplicationNotFound)
}

func testRunEligibilityDecision(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	loanStore := store.New(db)
	scorer := eligibility.NewLogisticScorer("../../configs/baseline-scorer.json")
	handler := runeligibilitydecision.NewHandler(runeligibilitydecision.LoadConfig(), loanStore, scorer, logger.NewZapAdapter(log))

	// Complete applicant clears validation and lands in a scored band.
	output, err := handler.Execute(context.Background(), &runeligibilitydecision.Input{ApplicationID: seedCompleteApp})
	require.NoError(t, err)
	assert.NotEmpty(t, output.DecisionID)
	assert.GreaterOrEqual(t, output.Probability, 0.0)
	assert.LessOrEqual(t, output.Probability, 1.0)
	assert.Contains(t, []string{models.LabelApprove, models.LabelReview}, output.Label)
	assert.Empty(t, output.Validation.FailChecks)
	assert.NotEmpty(t, output.Rationale)

	// Thin applicant short-circuits to a soft decline without scoring.
	output, err = handler.Execute(context.Background(), &runeligibilitydecision.Input{ApplicationID: seedThinApp})
	require.NoError(t, err)
	assert.Equal(t, models.LabelSoftDecline, output.Label)
	assert.Equal(t, models.StatusSoftDecline, output.Status)
	assert.NotEmpty(t, output.Validation.FailChecks)

	// The decision must be on record for the downstream readers.
	decision, err := loanStore.LatestDecision(context.Background(), seedCompleteApp)
	require.NoError(t, err)
	assert.Equal(t, seedCompleteApp, decision.ApplicationID)
}

func testGenerateRecommendations(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	handler := generaterecommendations.NewHandler(generaterecommendations.LoadConfig(), store.New(db), rdb, logger.NewZapAdapter(log))

	input := &generaterecommendations.Input{ApplicationID: seedCompleteApp}

	first, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, seedCompleteApp, first.ApplicationID)
	assert.NotEmpty(t, first.Recommendations)

	// Second call inside the TTL is served from the cache and must agree.
	second, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func testSendNotification(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	// Channels stay off so no real mail leaves the test run.
	handler, err := sendnotification.NewHandler(&sendnotification.Config{
		EmailEnabled: false,
		SMSEnabled:   false,
		FromEmail:    "no-reply@loanflow.example",
		AWSRegion:    "us-east-1",
		Timeout:      10 * time.Second,
	}, logger.NewZapAdapter(log))
	require.NoError(t, err)

	input := &sendnotification.Input{
		ApplicationID:    seedCompleteApp,
		NotificationType: sendnotification.TypeDecisionRecorded,
		RecipientEmail:   "applicant@example.com",
		Metadata:         map[string]interface{}{"fullName": "Rosa Almeida"},
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, sendnotification.StatusDisabled, output.Status)
	assert.NotEmpty(t, output.NotificationID)
	assert.NotEmpty(t, output.SentAt)
}

func testClassifyChatIntent(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	logAdapter := &classifyChatIntentLoggerAdapter{logger.NewZapAdapter(log)}
	handler := classifychatintent.NewHandler(classifychatintent.LoadConfig(), logAdapter)

	input := &classifychatintent.Input{
		ApplicationID: seedCompleteApp,
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: "What documents do I still need to upload?"},
		},
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, classifychatintent.IntentDocuments, output.Intent)
	assert.Greater(t, output.Confidence, 0.0)
	assert.NotEmpty(t, output.DataSources)
}

func testQueryApplicationContext(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	logAdapter := &queryApplicationContextLoggerAdapter{logger.NewZapAdapter(log)}
	handler := queryapplicationcontext.NewHandler(queryapplicationcontext.LoadConfig(), store.New(db), es, rdb, logAdapter)

	output, err := handler.Execute(context.Background(), &queryapplicationcontext.Input{
		ApplicationID: seedCompleteApp,
		DataSources:   []string{"internal_db"},
	})
	require.NoError(t, err)
	assert.Contains(t, output.ContextData, "application")
	assert.Contains(t, output.ContextData, "documents")
	// The decision pipeline ran earlier in this suite.
	assert.Contains(t, output.ContextData, "decision")

	_, err = handler.Execute(context.Background(), &queryapplicationcontext.Input{
		ApplicationID: "APP-E2E-MISSING",
		DataSources:   []string{"internal_db"},
	})
	assert.ErrorIs(t, err, store.ErrApplicationNotFound)
}

func testAnswerApplicationChat(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	logAdapter := &answerApplicationChatLoggerAdapter{logger.NewZapAdapter(log)}

	// No model client: the orchestrator must settle on the rules tier.
	orchestrator := agent.NewOrchestrator(store.New(db), nil, false, logger.NewZapAdapter(log))
	handler := answerapplicationchat.NewHandler(answerapplicationchat.LoadConfig(), orchestrator, logAdapter)

	output, err := handler.Execute(context.Background(), &answerapplicationchat.Input{
		ApplicationID: seedCompleteApp,
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: "What is the status of my application?"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, output.Reply)

	// Unknown applications still get a reply, never a job failure.
	output, err = handler.Execute(context.Background(), &answerapplicationchat.Input{
		ApplicationID: "APP-E2E-MISSING",
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: "What is the status of my application?"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, output.Reply)
}

func testQueryPostgreSQL(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	handler := querypostgresql.NewHandler(querypostgresql.LoadConfig(), db, logger.NewZapAdapter(log))

	output, err := handler.Execute(context.Background(), &querypostgresql.Input{
		QueryType:     "application_by_id",
		ApplicationID: seedCompleteApp,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)
	assert.NotNil(t, output.Data)

	// The decision worker ran earlier, so a latest decision exists.
	output, err = handler.Execute(context.Background(), &querypostgresql.Input{
		QueryType:     "latest_decision",
		ApplicationID: seedCompleteApp,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)

	_, err = handler.Execute(context.Background(), &querypostgresql.Input{QueryType: "unknown"})
	assert.ErrorIs(t, err, querypostgresql.ErrInvalidQueryType)
}

func testQueryElasticsearch(t *testing.T, cfg *config.Config, log *zap.Logger, db *sql.DB, es *elasticsearch.Client, rdb *redis.Client) {
	// Make this run's uploads searchable before querying.
	if res, err := es.Indices.Refresh(es.Indices.Refresh.WithIndex("documents")); err == nil {
		res.Body.Close()
	}

	handler := queryelasticsearch.NewHandler(queryelasticsearch.LoadConfig(), es, logger.NewZapAdapter(log))

	output, err := handler.Execute(context.Background(), &queryelasticsearch.Input{
		IndexName:     "documents",
		QueryType:     "documents_fulltext",
		ApplicationID: seedCompleteApp,
		Pagination:    queryelasticsearch.Pagination{From: 0, Size: 10},
	})
	require.NoError(t, err)
	// The document worker indexed at least one upload earlier in this suite.
	assert.GreaterOrEqual(t, output.TotalHits, int64(1))

	_, err = handler.Execute(context.Background(), &queryelasticsearch.Input{
		IndexName: "loanflow-missing-e2e",
		QueryType: "documents_fulltext",
	})
	assert.ErrorIs(t, err, queryelasticsearch.ErrIndexNotFound)
}

// ==========================
// Benchmark Tests
// ==========================
func BenchmarkHandler_ValidateApplicationData(b *testing.B) {
	cfg, err := config.Load()
	if err != nil {
		b.Skipf("config unavailable: %v", err)
	}
	cfg.Database.Postgres.Host = "localhost"

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		b.Skipf("PostgreSQL unavailable: %v", err)
	}
	defer dbClient.Close()

	handler := validateapplicationdata.NewHandler(validateapplicationdata.LoadConfig(), store.New(dbClient.DB), logger.NewStructured("info", "json"))

	input := &validateapplicationdata.Input{ApplicationID: seedCompleteApp}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}

func BenchmarkHandler_QueryPostgreSQL(b *testing.B) {
	cfg, err := config.Load()
	if err != nil {
		b.Skipf("config unavailable: %v", err)
	}
	cfg.Database.Postgres.Host = "localhost"

	dbClient, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		b.Skipf("PostgreSQL unavailable: %v", err)
	}
	defer dbClient.Close()

	handler := querypostgresql.NewHandler(querypostgresql.LoadConfig(), dbClient.DB, logger.NewStructured("info", "json"))

	input := &querypostgresql.Input{
		QueryType:     "latest_decision",
		ApplicationID: seedCompleteApp,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}

func BenchmarkHandler_QueryElasticsearch(b *testing.B) {
	cfg, err := config.Load()
	if err != nil {
		b.Skipf("config unavailable: %v", err)
	}
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"

	esURL := cfg.Database.Elasticsearch.GetURL()
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
	if err != nil {
		b.Skipf("Elasticsearch unavailable: %v", err)
	}

	handler := queryelasticsearch.NewHandler(queryelasticsearch.LoadConfig(), es, logger.NewStructured("info", "json"))

	input := &queryelasticsearch.Input{
		IndexName:     "documents",
		QueryType:     "documents_fulltext",
		ApplicationID: seedCompleteApp,
		Pagination: queryelasticsearch.Pagination{
			From: 0,
			Size: 10,
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}

func BenchmarkHandler_ClassifyChatIntent(b *testing.B) {
	logAdapter := &classifyChatIntentLoggerAdapter{logger.NewStructured("info", "json")}
	handler := classifychatintent.NewHandler(classifychatintent.LoadConfig(), logAdapter)

	input := &classifychatintent.Input{
		ApplicationID: seedCompleteApp,
		Messages: []models.ChatMessage{
			{Role: models.RoleUser, Content: "Can you summarize the documents on my file?"},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.Execute(context.Background(), input)
	}
}
