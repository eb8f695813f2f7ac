// Package pcall runs calls that must not take the process down with them.
package pcall

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"strconv"

	"github.com/sirupsen/logrus"
)

var ErrPanic = errors.New("pcall: recovered panic")

var typeOfError = reflect.TypeOf((*error)(nil)).Elem()

func recovered(log *logrus.Entry, name string, rec any) error {
	stack := strconv.Quote(string(debug.Stack()))
	if log != nil {
		log.WithFields(logrus.Fields{
			"method": name,
			"panic":  fmt.Sprint(rec),
			"stack":  stack,
		}).Error("[Pcall/Recover] panic during dispatch")
	}
	if s, ok := rec.(string); ok {
		return fmt.Errorf("%w: %s: %s", ErrPanic, name, s)
	}
	return fmt.Errorf("%w: %s: %v", ErrPanic, name, rec)
}

// Safe runs fn and converts a panic into an error.
func Safe(log *logrus.Entry, name string, fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = recovered(log, name, rec)
		}
	}()
	fn()
	return nil
}

// PcallN calls method. A trailing error result is split off and returned as
// err; the other results are returned in order.
func PcallN(log *logrus.Entry, method reflect.Method, args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results, err = nil, recovered(log, method.Name, rec)
		}
	}()
	r := method.Func.Call(args)
	if n := len(r); n > 0 && method.Type.Out(n-1) == typeOfError {
		last := r[n-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		r = r[:n-1]
	}
	return r, nil
}
