package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

// force the timezone to IST so freshness windows and "last scraped"
// timestamps behave the same regardless of which region the server
// lands in
func Now() time.Time {
	return time.Now().In(Location)
}
