package payload

import "time"

// Processed is the echo-transform result returned by the process endpoint.
type Processed struct {
	Original  interface{} `json:"original"`
	Processed struct {
		Timestamp   time.Time   `json:"timestamp"`
		DataType    string      `json:"dataType"`
		ItemCount   int         `json:"itemCount"`
		Transformed interface{} `json:"transformed"`
	} `json:"processed"`
}

// Process describes body and wraps each element or key with its type.
func Process(body interface{}, now time.Time) Processed {
	var out Processed
	out.Original = body
	out.Processed.Timestamp = now.UTC()
	out.Processed.DataType = jsonType(body)
	switch v := body.(type) {
	case []interface{}:
		out.Processed.DataType = "array"
		out.Processed.ItemCount = len(v)
	case map[string]interface{}:
		out.Processed.ItemCount = len(v)
	}
	out.Processed.Transformed = transform(body)
	return out
}

func transform(body interface{}) interface{} {
	switch v := body.(type) {
	case []interface{}:
		items := make([]map[string]interface{}, len(v))
		for i, item := range v {
			items[i] = map[string]interface{}{"index": i, "value": item, "processed": true}
		}
		return items
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out["processed_"+k] = map[string]interface{}{
				"originalValue": val,
				"type":          jsonType(val),
				"processed":     true,
			}
		}
		return out
	default:
		return map[string]interface{}{"originalValue": v, "type": jsonType(v), "processed": true}
	}
}

// jsonType names a decoded JSON value. Arrays and null read as "object".
func jsonType(v interface{}) string {
	switch v.(type) {
	case nil:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	default:
		return "object"
	}
}
