package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	return l
}

func TestAppend_FirstRecordChainsToGenesis(t *testing.T) {
	l := openTestLog(t)
	id, err := l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "mission-1", Resource: "step:build", Action: "execute", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	recs := l.Recent(1)
	require.Len(t, recs, 1)
	assert.Equal(t, genesisSentinel, recs[0].PreviousHash)
	assert.NotEmpty(t, recs[0].ChainHash)
}

func TestAppend_ChainsSequentially(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 5; i++ {
		_, err := l.Append(NewRecordInput{Kind: EventToolExecution, Actor: "mission-1", Resource: "tool:http", Action: "call", Outcome: OutcomeSuccess, Risk: RiskLow})
		require.NoError(t, err)
	}
	recs := l.Recent(5)
	for i := 1; i < len(recs); i++ {
		assert.Equal(t, recs[i].ChainHash, recs[i-1].PreviousHash)
	}
}

func TestVerifyIntegrity_DetectsTamperedRecord(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 3; i++ {
		_, err := l.Append(NewRecordInput{Kind: EventDataAccess, Actor: "a", Resource: "r", Action: "read", Outcome: OutcomeSuccess, Risk: RiskLow})
		require.NoError(t, err)
	}
	result := l.VerifyIntegrity()
	assert.True(t, result.OK)

	l.records[1].Actor = "tampered"
	result = l.VerifyIntegrity()
	assert.False(t, result.OK)
	assert.Contains(t, result.CorruptedIDs, l.records[1].ID)
}

func TestQuery_FiltersByKindAndOutcome(t *testing.T) {
	l := openTestLog(t)
	_, _ = l.Append(NewRecordInput{Kind: EventAuthentication, Actor: "u1", Resource: "login", Action: "auth", Outcome: OutcomeSuccess, Risk: RiskLow})
	_, _ = l.Append(NewRecordInput{Kind: EventAuthorization, Actor: "u1", Resource: "secret", Action: "read", Outcome: OutcomeBlocked, Risk: RiskCritical})

	results := l.Query(Filter{Kinds: []EventKind{EventAuthorization}})
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeBlocked, results[0].Outcome)
}

func TestQuery_OrdersNewestFirst(t *testing.T) {
	l := openTestLog(t)
	_, _ = l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r1", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})
	_, _ = l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r2", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})

	results := l.Query(Filter{})
	require.Len(t, results, 2)
	assert.Equal(t, "r2", results[0].Resource)
}

func TestPrune_RefuseAcrossCutByDefault(t *testing.T) {
	l, err := Open(t.TempDir(), WithRetention(time.Millisecond, RetentionRefuseAcrossCut))
	require.NoError(t, err)
	_, err = l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = l.Prune(time.Now())
	require.Error(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestPrune_NewGenesisResetsChain(t *testing.T) {
	l, err := Open(t.TempDir(), WithRetention(time.Millisecond, RetentionNewGenesis))
	require.NoError(t, err)
	_, err = l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	pruned, err := l.Prune(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)
	assert.Equal(t, 0, l.Len())
}

func TestComplianceRules_FlagExcessiveFailuresAndUnauthorizedPrivilegedOp(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 4; i++ {
		_, err := l.Append(NewRecordInput{Kind: EventAuthentication, Actor: "attacker", Resource: "login", Action: "auth", Outcome: OutcomeFailure, Risk: RiskMedium})
		require.NoError(t, err)
	}
	_, err := l.Append(NewRecordInput{Kind: EventAuthorization, Actor: "attacker", Resource: "admin-panel", Action: "admin_delete_user", Outcome: OutcomeBlocked, Risk: RiskCritical})
	require.NoError(t, err)

	report := l.Report(Filter{})
	var rules []string
	for _, v := range report.Compliance.Violations {
		rules = append(rules, v.Rule)
	}
	assert.Contains(t, rules, "excessive_failed_attempts")
	assert.Contains(t, rules, "unauthorized_privileged_operation")
	assert.Less(t, report.Compliance.Score, 100.0)
}

func TestComplianceRules_HighRiskWithoutApprovalAcceptsSupervisorApproval(t *testing.T) {
	l := openTestLog(t)
	_, err := l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "a", Resource: "prod-db", Action: "drop_table", Outcome: OutcomeSuccess, Risk: RiskHigh})
	require.NoError(t, err)
	_, err = l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "a", Resource: "prod-db", Action: "drop_table", Outcome: OutcomeSuccess, Risk: RiskHigh,
		Details: map[string]interface{}{"supervisor_approval": "ops-lead"}})
	require.NoError(t, err)

	report := l.Report(Filter{})
	var rules []string
	highRisk := 0
	for _, v := range report.Compliance.Violations {
		rules = append(rules, v.Rule)
		if v.Rule == "high_risk_without_approval" {
			highRisk++
		}
	}
	assert.Contains(t, rules, "high_risk_without_approval")
	assert.Equal(t, 1, highRisk, "the record carrying supervisor_approval must not be flagged")
}

func TestComplianceRules_SuspiciousGeoAndRapidOpsAndSessionTracking(t *testing.T) {
	l := openTestLog(t)
	_, err := l.Append(NewRecordInput{Kind: EventDataAccess, Actor: "u1", Resource: "db", Action: "read", Outcome: OutcomeSuccess, Risk: RiskLow,
		Details: map[string]interface{}{"geo_location": "tor-exit-node"}})
	require.NoError(t, err)
	_, err = l.Append(NewRecordInput{Kind: EventAuthentication, Actor: "u2", Resource: "login", Action: "auth", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)
	_, err = l.Append(NewRecordInput{Kind: EventAuthentication, Actor: "u2", Resource: "login", Action: "auth", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)
	_, err = l.Append(NewRecordInput{Kind: EventToolExecution, Actor: "u3", Resource: "tool:http", Action: "call", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)

	report := l.Report(Filter{})
	var rules []string
	for _, v := range report.Compliance.Violations {
		rules = append(rules, v.Rule)
	}
	assert.Contains(t, rules, "suspicious_geographic_access")
	assert.Contains(t, rules, "rapid_consecutive_operations")
	assert.Contains(t, rules, "missing_session_tracking")
	assert.Contains(t, rules, "untracked_tool_execution")
}

func TestComplianceRules_ScoreReflectsPassedOverTotal(t *testing.T) {
	l := openTestLog(t)
	_, err := l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)
	_, err = l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u2", Resource: "r", Action: "a", Outcome: OutcomeFailure, Risk: RiskLow})
	require.NoError(t, err)

	report := l.Report(Filter{})
	assert.InDelta(t, 50.0, report.Compliance.Score, 0.01)
}

func TestReport_CountsAndTopActors(t *testing.T) {
	l := openTestLog(t)
	_, _ = l.Append(NewRecordInput{Kind: EventDataAccess, Actor: "alice", Resource: "db", Action: "read", Outcome: OutcomeSuccess, Risk: RiskLow})
	_, _ = l.Append(NewRecordInput{Kind: EventDataAccess, Actor: "alice", Resource: "db", Action: "read", Outcome: OutcomeSuccess, Risk: RiskLow})
	_, _ = l.Append(NewRecordInput{Kind: EventDataAccess, Actor: "bob", Resource: "db", Action: "read", Outcome: OutcomeFailure, Risk: RiskLow})

	report := l.Report(Filter{})
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 3, report.CountsByKind[EventDataAccess])
	require.NotEmpty(t, report.TopActors)
	assert.Equal(t, "alice", report.TopActors[0].Key)
	assert.InDelta(t, 1.0/3.0, report.ErrorRate, 0.001)
}

func TestExport_CSVIncludesHeaderAndChainHash(t *testing.T) {
	l := openTestLog(t)
	_, err := l.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)

	data, err := l.Export(FormatCSV, Filter{})
	require.NoError(t, err)
	assert.Contains(t, string(data), "chain_hash")
}

func TestOpen_ResumesExistingChain(t *testing.T) {
	dir := t.TempDir()
	l1, err := Open(dir)
	require.NoError(t, err)
	_, err = l1.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)

	l2, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, l2.Len())

	_, err = l2.Append(NewRecordInput{Kind: EventStepExecution, Actor: "u1", Resource: "r2", Action: "a", Outcome: OutcomeSuccess, Risk: RiskLow})
	require.NoError(t, err)
	result := l2.VerifyIntegrity()
	assert.True(t, result.OK)
}
