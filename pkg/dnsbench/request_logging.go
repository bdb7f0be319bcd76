package dnsbench

import (
	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// logQuery emits one structured debug line per completed query.
func logQuery(logger *zap.Logger, res QueryResult) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := []zap.Field{
		zap.String("resolver", res.Task.Resolver.ID),
		zap.Stringer("transport", res.Task.Transport),
		zap.String("qname", res.Task.Domain),
		zap.String("qtype", dns.TypeToString[res.Task.Type]),
		zap.Int("run", res.Task.Run),
		zap.Bool("success", res.Success),
		zap.Duration("latency", res.Latency),
	}
	if res.ConnLatency > 0 {
		fields = append(fields, zap.Duration("connLatency", res.ConnLatency))
	}
	if res.Err != NoError {
		fields = append(fields, zap.Stringer("errorKind", res.Err))
	} else {
		fields = append(fields, zap.String("rcode", dns.RcodeToString[res.Rcode]))
	}
	logger.Debug("dns query", fields...)
}
