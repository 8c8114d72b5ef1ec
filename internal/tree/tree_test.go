package tree

import (
	"testing"
)

func TestParse_PreservesMemberOrder(t *testing.T) {
	v, err := Parse([]byte(`{"z":1,"a":{"y":"x","b":[true,null,2.5]}}`))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	members := v.Members()
	if len(members) != 2 || members[0].Key != "z" || members[1].Key != "a" {
		t.Fatalf("Unexpected member order: %+v", members)
	}

	if got := v.String(); got != `{"z":1,"a":{"y":"x","b":[true,null,2.5]}}` {
		t.Errorf("Round trip mismatch: %s", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		``,
		`{"a":`,
		`{"a":1} {"b":2}`,
		`not json`,
	}

	for _, in := range tests {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestAccessors(t *testing.T) {
	v, err := Parse([]byte(`{"Name":"Aspirin","Ref":12,"MW":"180.16","Weight":180.5,"Flag":false}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if s := v.OptString("Name"); s == nil || *s != "Aspirin" {
		t.Errorf("OptString(Name) = %v", s)
	}
	if s := v.OptString("Missing"); s != nil {
		t.Errorf("OptString(Missing) = %v, want nil", *s)
	}
	if n := v.OptInt("Ref"); n == nil || *n != 12 {
		t.Errorf("OptInt(Ref) = %v", n)
	}
	if n := v.OptInt("Name"); n != nil {
		t.Errorf("OptInt(Name) = %v, want nil", *n)
	}
	if s := v.OptText("Weight"); s == nil || *s != "180.5" {
		t.Errorf("OptText(Weight) = %v", s)
	}
	if s := v.OptText("MW"); s == nil || *s != "180.16" {
		t.Errorf("OptText(MW) = %v", s)
	}
	if s := v.OptText("Flag"); s == nil || *s != "false" {
		t.Errorf("OptText(Flag) = %v", s)
	}
	if !v.Path("Name", "deeper").IsNull() {
		t.Error("Path through a scalar should be null")
	}
}

func TestWalk_DocumentOrder(t *testing.T) {
	v, err := Parse([]byte(`{"a":"1","b":["2",{"c":"3"}],"d":"4"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var got []string
	Walk(v, func(n Value) bool {
		if s, ok := n.Str(); ok {
			got = append(got, s)
		}
		return true
	})

	want := []string{"1", "2", "3", "4"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestWalk_SkipChildren(t *testing.T) {
	v, _ := Parse([]byte(`{"skip":{"x":"hidden"},"keep":"shown"}`))

	var got []string
	Walk(v, func(n Value) bool {
		if _, ok := n.Get("x"); ok {
			return false
		}
		if s, ok := n.Str(); ok {
			got = append(got, s)
		}
		return true
	})

	if len(got) != 1 || got[0] != "shown" {
		t.Errorf("got %v", got)
	}
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	v := ObjectValue(Member{Key: "k", Value: StringValue("a<b>&c é")})
	if got := v.String(); got != `{"k":"a<b>&c é"}` {
		t.Errorf("got %s", got)
	}
}

func TestInterfaceRoundTrip(t *testing.T) {
	v, _ := Parse([]byte(`{"b":[1,"x"],"a":null}`))
	back := FromInterface(v.Interface())

	// keys come back sorted
	if got := back.String(); got != `{"a":null,"b":[1,"x"]}` {
		t.Errorf("got %s", got)
	}
}
