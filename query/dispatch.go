package query

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Dispatch parses one line of the textual request protocol and renders
// the result as JSON text, grounded in aistore's plain-text-ish ais/
// request dispatch but kept intentionally thin: no network listener,
// just the string-in/string-out contract.
func Dispatch(r Reader, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", errors.New("empty request")
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "summary":
		return render(r.Summary())

	case "list-nodes":
		return render(r.Nodes())

	case "group-info":
		id, err := requireUint(args, "group-info <id>")
		if err != nil {
			return "", err
		}
		g, err := r.Group(id)
		if err != nil {
			return "", err
		}
		return render(g)

	case "node-info":
		key, err := requireOne(args, "node-info <host:port:family>")
		if err != nil {
			return "", err
		}
		n, err := r.Node(key)
		if err != nil {
			return "", err
		}
		return render(n)

	case "node-list-backends":
		key, err := requireOne(args, "node-list-backends <node>")
		if err != nil {
			return "", err
		}
		bs, err := NodeListBackends(r, key)
		if err != nil {
			return "", err
		}
		return render(bs)

	case "backend-info":
		key, err := requireOne(args, "backend-info <node>/<id>")
		if err != nil {
			return "", err
		}
		b, err := r.Backend(key)
		if err != nil {
			return "", err
		}
		return render(b)

	case "fs-info":
		key, err := requireOne(args, "fs-info <host/fsid>")
		if err != nil {
			return "", err
		}
		f, err := r.FS(key)
		if err != nil {
			return "", err
		}
		return render(f)

	case "fs-list-backends":
		key, err := requireOne(args, "fs-list-backends <host/fsid>")
		if err != nil {
			return "", err
		}
		bs, err := FSListBackends(r, key)
		if err != nil {
			return "", err
		}
		return render(bs)

	default:
		return "", errors.Errorf("unknown request %q", cmd)
	}
}

func requireOne(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", errors.Errorf("usage: %s", usage)
	}
	return args[0], nil
}

func requireUint(args []string, usage string) (uint64, error) {
	s, err := requireOne(args, usage)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "usage: %s", usage)
	}
	return id, nil
}

func render(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "render response")
	}
	return string(b), nil
}
