package sqlspan

// SQLOp is the name of an sql operation that executes a statement.
// It can be passed to the WithOpsExcluded() option
type SQLOp string

const (
	OpSQLConnExec  SQLOp = "sql-conn-exec"
	OpSQLConnQuery SQLOp = "sql-conn-query"
	OpSQLStmtExec  SQLOp = "sql-stmt-exec"
	OpSQLStmtQuery SQLOp = "sql-stmt-query"
)

// String returns the string representation of SQLOp.
func (s SQLOp) String() string {
	return string(s)
}
