package reporter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/dnspulse/dnspulse/pkg/dnsbench"
	"github.com/miekg/dns"
)

// writeRawCSV exports every individual query result, one row per query.
func writeRawCSV(w io.Writer, runs []*dnsbench.ResolverRun) error {
	cw := csv.NewWriter(w)
	header := []string{"resolver", "transport", "run", "domain", "qtype", "success", "rcode", "error", "latency_ms", "conn_ms", "start"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, run := range runs {
		for _, res := range run.Results {
			errStr := ""
			if res.Err != dnsbench.NoError {
				errStr = res.Err.String()
			}
			row := []string{
				run.Resolver.ID,
				string(run.Transport),
				strconv.Itoa(res.Task.Run),
				res.Task.Domain,
				dns.TypeToString[res.Task.Type],
				strconv.FormatBool(res.Success),
				dns.RcodeToString[res.Rcode],
				errStr,
				strconv.FormatFloat(millis(res.Latency), 'f', -1, 64),
				strconv.FormatFloat(millis(res.ConnLatency), 'f', -1, 64),
				res.Start.Format("2006-01-02T15:04:05.000Z07:00"),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
