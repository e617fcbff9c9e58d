package forwarder

import (
	"net/netip"

	"github.com/haukened/rr-dnsfwd/internal/dns/common/log"
	"github.com/haukened/rr-dnsfwd/internal/dns/common/utils"
	"github.com/haukened/rr-dnsfwd/internal/dns/domain"
)

// QueryLogInterceptor logs every question of a request and passes it on unchanged.
func QueryLogInterceptor(logger log.Logger) Interceptor {
	return func(msg domain.Message, next Chain) domain.Message {
		for _, q := range msg.Questions {
			logger.Info(map[string]any{
				"id":    msg.Header.ID,
				"name":  q.Name,
				"apex":  utils.GetApexDomain(q.Name),
				"type":  q.Type.String(),
				"class": q.Class.String(),
			}, "Query received")
		}
		return next(msg)
	}
}

// ResponseLogInterceptor logs a summary of every upstream reply.
func ResponseLogInterceptor(logger log.Logger) Interceptor {
	return func(msg domain.Message, next Chain) domain.Message {
		fields := map[string]any{
			"id":         msg.Header.ID,
			"rcode":      msg.Header.RCode.String(),
			"answers":    len(msg.Answers),
			"authority":  len(msg.Authority),
			"additional": len(msg.Additional),
		}
		if q, ok := msg.FirstQuestion(); ok {
			fields["name"] = q.Name
		}
		logger.Info(fields, "Response received")
		return next(msg)
	}
}

// SinkholeInterceptor rewrites the address records of replies to blocked
// names. A answers get v4 and AAAA answers get v6; anything else is kept.
func SinkholeInterceptor(blocklist Blocklist, v4, v6 netip.Addr, logger log.Logger) Interceptor {
	return func(msg domain.Message, next Chain) domain.Message {
		q, ok := msg.FirstQuestion()
		if !ok {
			return next(msg)
		}
		decision := blocklist.Decide(q.Name)
		if !decision.IsBlocked() {
			return next(msg)
		}

		out := msg.Clone()
		rewritten := 0
		for i := range out.Answers {
			switch out.Answers[i].Type {
			case domain.RRTypeA:
				out.Answers[i].RData = v4.String()
				rewritten++
			case domain.RRTypeAAAA:
				out.Answers[i].RData = v6.String()
				rewritten++
			}
		}

		logger.Info(map[string]any{
			"id":        msg.Header.ID,
			"name":      q.Name,
			"rule":      decision.MatchedRule,
			"kind":      decision.Kind.String(),
			"source":    decision.Source,
			"rewritten": rewritten,
		}, "Blocked name sinkholed")
		return next(out)
	}
}
