package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestNewAutoDimension(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "TestFunction")

	r := New("TestNamespace")
	if r.namespace != "TestNamespace" {
		t.Errorf("expected namespace TestNamespace, got %s", r.namespace)
	}
	if r.dimensions["FunctionName"] != "TestFunction" {
		t.Errorf("expected FunctionName dimension TestFunction, got %s", r.dimensions["FunctionName"])
	}
}

func TestRecorderFlushOutput(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	var buf bytes.Buffer
	rec := New("ListingCopyKit").SetOutput(&buf)
	rec.Dimension("Operation", "generate")
	rec.Metric("LatencyMs", 1234.5, UnitMilliseconds)
	rec.Metric("TotalTokens", 300, UnitCount)
	rec.Property("jobId", "kit-abc")
	rec.Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsDir, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsDir["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}

	cwArr, ok := awsDir["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != "ListingCopyKit" {
		t.Errorf("expected namespace ListingCopyKit, got %v", cw["Namespace"])
	}

	if doc["Operation"] != "generate" {
		t.Errorf("expected Operation=generate, got %v", doc["Operation"])
	}
	if doc["LatencyMs"] != 1234.5 {
		t.Errorf("expected LatencyMs=1234.5, got %v", doc["LatencyMs"])
	}
	if doc["TotalTokens"] != float64(300) {
		t.Errorf("expected TotalTokens=300, got %v", doc["TotalTokens"])
	}
	if doc["jobId"] != "kit-abc" {
		t.Errorf("expected jobId=kit-abc, got %v", doc["jobId"])
	}
}

func TestRecorderFlushEmpty(t *testing.T) {
	var buf bytes.Buffer
	rec := New("Test").SetOutput(&buf)
	rec.Flush() // No metrics — should produce no output

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorderConveniences(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")

	rec := New("Test").
		Dimension("Op", "test").
		Duration("Elapsed", 1500*time.Millisecond).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Op"] != "test" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Elapsed"] != float64(1500) {
		t.Errorf("expected Elapsed=1500, got %v", rec.values["Elapsed"])
	}
	if m := rec.metrics["Elapsed"]; m.Unit != UnitMilliseconds {
		t.Errorf("expected unit Milliseconds, got %v", m.Unit)
	}
	if rec.values["Calls"] != float64(1) {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
