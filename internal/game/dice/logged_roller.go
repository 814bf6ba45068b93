package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so every roll of a simulation stream is
// auditable at debug level. It satisfies Source itself, so resolvers accept it
// anywhere a plain Source is expected.
type Roller struct {
	src    Source
	stream string
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger,
// tagging entries with the stream name (e.g. "party:3" or "floor:2").
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, stream string, logger *zap.Logger) *Roller {
	return &Roller{src: src, stream: stream, logger: logger}
}

// Intn draws from the underlying source and logs the draw.
func (r *Roller) Intn(n int) int {
	v := r.src.Intn(n)
	if ce := r.logger.Check(zap.DebugLevel, "dice draw"); ce != nil {
		ce.Write(
			zap.String("stream", r.stream),
			zap.Int("sides", n),
			zap.Int("value", v+1),
		)
	}
	return v
}

// Roll evaluates expr and logs the result at debug level.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("stream", r.stream),
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}
