package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("EDUBOT_TEST_INT", "nope")
	if got := Int("EDUBOT_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("EDUBOT_TEST_INT", " 12 ")
	if got := Int("EDUBOT_TEST_INT", 7, nil); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestBoolAndSeconds(t *testing.T) {
	t.Setenv("EDUBOT_TEST_BOOL", "on")
	if !Bool("EDUBOT_TEST_BOOL", false, nil) {
		t.Fatalf("Bool: want=true")
	}
	t.Setenv("EDUBOT_TEST_SECS", "90")
	if got := Seconds("EDUBOT_TEST_SECS", time.Minute, nil); got != 90*time.Second {
		t.Fatalf("Seconds: want=90s got=%s", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("EDUBOT_TEST_LIST", "a, ,b,")
	got := List("EDUBOT_TEST_LIST", nil, nil)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("List: want=[a b] got=%v", got)
	}
}
