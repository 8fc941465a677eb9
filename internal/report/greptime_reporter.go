package report

import (
	"context"
	"net"
	"os"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"

	"chaoskit/internal/chaos"
)

// DecisionTableName is the GreptimeDB table decisions are written to. It
// defaults to "chaos_decisions" and can be overridden via the
// CHAOS_DECISION_TABLE environment variable.
var DecisionTableName = func() string {
	if env := os.Getenv("CHAOS_DECISION_TABLE"); env != "" {
		return env
	}
	return "chaos_decisions"
}()

// greptimeClient is the subset of the ingester client the reporter uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeReporter writes decision rows to GreptimeDB via the ingester.
type GreptimeReporter struct {
	client greptimeClient
	table  string
}

// NewGreptimeReporter connects to a GreptimeDB endpoint ("host" or
// "host:port") and returns a reporter writing to database.
func NewGreptimeReporter(endpoint, database string) (*GreptimeReporter, error) {
	host := endpoint
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		if port, err := strconv.Atoi(p); err == nil {
			cfg = greptime.NewConfig(h).WithDatabase(database).WithPort(port)
		}
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeReporter{client: client, table: DecisionTableName}, nil
}

// Record implements chaos.Reporter.
func (r *GreptimeReporter) Record(d chaos.Decision) error {
	tbl, err := table.New(r.table)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("gate_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("operation", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("outcome", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("probability", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("delay_seconds", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("error_rate", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("max_delay_seconds", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(
		d.GateID,
		d.Operation,
		string(d.Outcome),
		d.Probability,
		d.DelaySeconds,
		d.ErrorRate,
		d.MaxDelaySeconds,
		d.Timestamp,
	); err != nil {
		return err
	}
	_, err = r.client.Write(context.Background(), tbl)
	return err
}
