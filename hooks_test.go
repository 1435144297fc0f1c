package main

import (
	"reflect"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			"two statements",
			"SET foreign_key_checks = 0;\nANALYZE TABLE `t`;",
			[]string{"SET foreign_key_checks = 0", "ANALYZE TABLE `t`"},
		},
		{
			"trailing without semicolon",
			"SELECT 1; SELECT 2",
			[]string{"SELECT 1", "SELECT 2"},
		},
		{
			"semicolon inside string literal",
			"INSERT INTO t VALUES ('a;b'); SELECT 1;",
			[]string{"INSERT INTO t VALUES ('a;b')", "SELECT 1"},
		},
		{
			"escaped quote",
			"INSERT INTO t VALUES ('it''s; fine'); SELECT 1;",
			[]string{"INSERT INTO t VALUES ('it''s; fine')", "SELECT 1"},
		},
		{
			"empty entries dropped",
			";;\n  ;\nSELECT 1;",
			[]string{"SELECT 1"},
		},
		{
			"empty input",
			"",
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.sql)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitStatements(%q) = %v, want %v", tt.sql, got, tt.want)
			}
		})
	}
}
