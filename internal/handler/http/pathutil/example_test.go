package pathutil_test

import (
	"fmt"

	"newsfeed/internal/handler/http/pathutil"
)

// ExampleNormalizePath demonstrates how path normalization works
// to prevent metrics label cardinality explosion.
func ExampleNormalizePath() {
	// Before normalization: every (user, doc) pair creates a unique path label.
	// After normalization: all click pairs map to the same template.
	fmt.Println(pathutil.NormalizePath("/click/u1/d1"))
	fmt.Println(pathutil.NormalizePath("/click/u2/d2"))
	fmt.Println(pathutil.NormalizePath("/click/u3/d3"))

	// Output:
	// /click/:user_id/:doc_id
	// /click/:user_id/:doc_id
	// /click/:user_id/:doc_id
}

// ExampleNormalizePath_static demonstrates that static endpoints remain unchanged.
func ExampleNormalizePath_static() {
	fmt.Println(pathutil.NormalizePath("/health"))
	fmt.Println(pathutil.NormalizePath("/metrics"))
	fmt.Println(pathutil.NormalizePath("/search"))

	// Output:
	// /health
	// /metrics
	// /search
}

// ExampleNormalizePath_queryParameters demonstrates that query parameters are stripped.
func ExampleNormalizePath_queryParameters() {
	fmt.Println(pathutil.NormalizePath("/click/u1/d1?source=feed"))
	fmt.Println(pathutil.NormalizePath("/search?q=golang"))
	fmt.Println(pathutil.NormalizePath("/health?format=json"))

	// Output:
	// /click/:user_id/:doc_id
	// /search
	// /health
}

// ExampleNormalizePath_trailingSlash demonstrates that trailing slashes are handled.
func ExampleNormalizePath_trailingSlash() {
	fmt.Println(pathutil.NormalizePath("/click/u1/d1/"))
	fmt.Println(pathutil.NormalizePath("/search/"))

	// Output:
	// /click/:user_id/:doc_id
	// /search
}

// ExampleGetExpectedCardinality demonstrates how to check expected metric cardinality.
func ExampleGetExpectedCardinality() {
	cardinality := pathutil.GetExpectedCardinality()
	fmt.Printf("Expected unique path labels: ~%d\n", cardinality)

	// Output is approximate, so we just demonstrate the usage
	// In real output: Expected unique path labels: ~4
}
