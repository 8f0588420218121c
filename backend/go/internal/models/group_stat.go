package models

import "encoding/json"

// MarshalJSON 以 {"<field>": group, "total": ..., "depressed": ..., "rate": ...} 的形式输出。
func (g GroupStat) MarshalJSON() ([]byte, error) {
	field := g.Field
	if field == "" {
		field = "group"
	}
	return json.Marshal(map[string]interface{}{
		field:       g.Group,
		"total":     g.Total,
		"depressed": g.Depressed,
		"rate":      g.Rate,
	})
}

// UnmarshalJSON 是 MarshalJSON 的逆操作，用于从缓存中恢复统计结果。
func (g *GroupStat) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		switch key {
		case "total":
			if err := json.Unmarshal(value, &g.Total); err != nil {
				return err
			}
		case "depressed":
			if err := json.Unmarshal(value, &g.Depressed); err != nil {
				return err
			}
		case "rate":
			if err := json.Unmarshal(value, &g.Rate); err != nil {
				return err
			}
		default:
			g.Field = key
			if err := json.Unmarshal(value, &g.Group); err != nil {
				return err
			}
		}
	}
	return nil
}
