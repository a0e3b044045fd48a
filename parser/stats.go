package parser

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const rofsErrorCode = "30"

// readStats parses the top-level "stats" object, accumulating only
// eblob.<backend_id>.disk.stat_commit.errors.30 (read-only filesystem
// error) entries into rofsErrors. All other codes and keys are ignored.
func readStats(iter *jsoniter.Iterator, rofsErrors map[uint64]uint64) bool {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		bid, code, matched := parseStatCommitKey(key)
		if !matched || code != rofsErrorCode {
			iter.Skip()
			continue
		}
		count := readCount(iter)
		rofsErrors[bid] += count
	}
	return iter.Error == nil
}

// parseStatCommitKey matches "eblob.<bid>.disk.stat_commit.errors.<code>".
func parseStatCommitKey(key string) (bid uint64, code string, ok bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 6 {
		return 0, "", false
	}
	if parts[0] != "eblob" || parts[2] != "disk" || parts[3] != "stat_commit" || parts[4] != "errors" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, parts[5], true
}

func readCount(iter *jsoniter.Iterator) (count uint64) {
	for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
		if key == "count" {
			count = iter.ReadUint64()
		} else {
			iter.Skip()
		}
	}
	return
}
