package hostfile

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseReader_TabDelimited(t *testing.T) {
	input := "node-1\t8001\trole=worker\tzone=a\n" +
		"# comment\n\n" +
		"node-2\tnode=aurora-0002\n"

	got, err := ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	want := []Endpoint{
		{Host: "node-1", Port: 8001, Tags: map[string]string{"role": "worker", "zone": "a"}},
		{Host: "node-2", Port: DefaultPort, Tags: map[string]string{"node": "aurora-0002"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseReader_WhitespaceDelimited(t *testing.T) {
	input := "host1:8000 node=aurora-0001 role=worker\n" +
		"host2 role=critic\n"

	got, err := ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	want := []Endpoint{
		{Host: "host1", Port: 8000, Tags: map[string]string{"node": "aurora-0001", "role": "worker"}},
		{Host: "host2", Port: DefaultPort, Tags: map[string]string{"role": "critic"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseReader_BlankAndComments(t *testing.T) {
	input := "\n  \n# a comment\n   # indented comment\nhost1\n"
	got, err := ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 1 || got[0].Host != "host1" {
		t.Errorf("got %+v", got)
	}
}

func TestRoundTrip_TabDelimited(t *testing.T) {
	eps := []Endpoint{
		{Host: "a", Port: 9001, Tags: map[string]string{"role": "worker"}},
		{Host: "b", Port: 9002, Tags: map[string]string{}},
	}
	got, err := ParseReader(strings.NewReader(Serialize(eps)))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if !reflect.DeepEqual(got, eps) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, eps)
	}
}

func TestURL(t *testing.T) {
	ep := Endpoint{Host: "10.0.0.1", Port: 8000}
	if got, want := ep.URL(), "http://10.0.0.1:8000"; got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}
