package version

// Current is the released version of the people directory module.
const Current = "0.3.0"

// UserAgent is sent on outbound Graph requests.
func UserAgent() string {
	return "peopledir/" + Current
}
