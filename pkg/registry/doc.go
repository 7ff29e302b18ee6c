// Package registry ties the pieces together: the publication coordinator
// runs the extract-validate-commit pipeline that admits new contract
// versions, and the query service answers dependency questions from the
// current graph snapshot through the epoch-stamped result cache.
package registry
