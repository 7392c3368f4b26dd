package chunker

import (
	"errors"
	"fmt"
)

// Config controls chunking behavior. All sizes are estimated tokens.
type Config struct {
	TargetMin   int // Lower edge of the window a split Discussion part aims for.
	TargetMax   int // Upper edge of the window; Discussion at or below this stays atomic.
	HardCeiling int // No chunk body plus overlap may exceed this.
	OverlapMin  int
	OverlapMax  int // 0 disables overlap.

	Workers   int    // Documents chunked in parallel by ChunkMany.
	Separator string // Separator line for ChunkText; empty means DefaultSeparator.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TargetMin:   300,
		TargetMax:   600,
		HardCeiling: 800,
		OverlapMin:  50,
		OverlapMax:  100,
		Workers:     4,
		Separator:   DefaultSeparator,
	}
}

// Validate checks that the bounds are consistent.
func (c Config) Validate() error {
	var errs []error
	if c.TargetMin <= 0 {
		errs = append(errs, fmt.Errorf("target min must be positive, got %d", c.TargetMin))
	}
	if c.TargetMax < c.TargetMin {
		errs = append(errs, fmt.Errorf("target max %d is below target min %d", c.TargetMax, c.TargetMin))
	}
	if c.HardCeiling < c.TargetMax {
		errs = append(errs, fmt.Errorf("hard ceiling %d is below target max %d", c.HardCeiling, c.TargetMax))
	}
	if c.OverlapMin < 0 || c.OverlapMax < 0 {
		errs = append(errs, errors.New("overlap bounds must not be negative"))
	}
	if c.OverlapMax > 0 {
		if c.OverlapMin > c.OverlapMax {
			errs = append(errs, fmt.Errorf("overlap min %d exceeds overlap max %d", c.OverlapMin, c.OverlapMax))
		}
		if b := c.bodyBudget(); b < c.TargetMax {
			errs = append(errs, fmt.Errorf("hard ceiling %d leaves a body budget of %d, below target max %d", c.HardCeiling, b, c.TargetMax))
		}
	}
	return errors.Join(errs...)
}

func (c Config) overlapEnabled() bool { return c.OverlapMax > 0 }

// bodyBudget is the largest pre-overlap body a split part may have. The extra
// token covers rounding when overlap and body estimates are added.
func (c Config) bodyBudget() int {
	if !c.overlapEnabled() {
		return c.HardCeiling
	}
	return c.HardCeiling - c.OverlapMax - 1
}

func (c Config) separator() string {
	if c.Separator == "" {
		return DefaultSeparator
	}
	return c.Separator
}
