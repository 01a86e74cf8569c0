package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Snowflake is a Discord ID. Config files written by hand carry IDs as bare
// numbers that do not fit a float64, so the raw digits are kept. Zero means
// unset.
type Snowflake string

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = normalizeSnowflake(str)
		return nil
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return fmt.Errorf("invalid snowflake %s", string(b))
		}
	}
	*s = normalizeSnowflake(string(b))
	return nil
}

// normalizeSnowflake maps all-zero IDs to unset.
func normalizeSnowflake(id string) Snowflake {
	id = strings.TrimSpace(id)
	if strings.Trim(id, "0") == "" {
		return ""
	}
	return Snowflake(id)
}
