package srp_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapcode/leapsrp/pkg/srp"
)

// Fixed private ephemerals shared by every vector.
const (
	vectorA = "60975527035cf2ad1989806f0407210bc81edc04e2762a56afd529ddda2d4393"
	vectorB = "e487cb59d31ac550471e81f00f6928e01dda08e974a004f49e61f5d105284d20"

	leapA = "61d5e490f6f1b79547b0704c436f523dd0e560f0c64115bb72557ec44352e8903211c04692272d8b2d1a5358a2cf1b6e0bfcf99f921530ec8e39356179eae45e42ba92aeaced825171e1e8b9af6d9c03e1327f44be087ef06530e69f66615261eef54073ca11cf5858f0edfdfe15efeab349ef5d76988a3672fac47b0769447b"
)

// vector is one login computed by an independent implementation with the
// private ephemerals above.
type vector struct {
	name     string
	params   func() *srp.Parameters
	username string
	password string
	salt     string
	packed   string
	x        string
	A        string
	B        string
	u        string
	K        string
	M1       string
	M2       string
}

var vectors = []vector{
	{
		name:     "leap ascii",
		params:   srp.LEAP1024,
		username: "alice",
		password: "password123",
		salt:     "64c78f2b2d3a1e55",
		packed:   "70617373776f7264313233",
		x:        "5642197f80b74f89ca86083a2749fba17666460fdba2541d3bfd18bc7ea200f8",
		A:        leapA,
		B:        "df4c2cfa972c53c28ee2e74f81bf3f10a83e327b231a5e5e8f3869faabc653f7e6981fe5220f126651df33372210fd7971e7a7615cb33a0bb51aa242eed1189e832fa3afae7cf0621f756a9507089915b6de142127c1dadeeaee1f2094901ea9c4fe83713877217e9aaab896087877152450918f011c10e0007d55b47b6d30bd",
		u:        "a9761c3771ebc6c2e26c1fe71a0785fe56ff9e229220e8660d9d578a7633fcad",
		K:        "59072bd743a9ef6b4b453c63ef8f40fbd3cd1237f21e5b4789d6f4ab3b0391c9",
		M1:       "416142964c4e12c7b33818b373ccf254ff556f7a70612fd3f42066c81d385668",
		M2:       "db95b234ca2907ba00da44c55b9a5c87dd0cb6224054f7b425322bb61267379f",
	},
	{
		name:     "leap non-ascii password",
		params:   srp.LEAP1024,
		username: "bob@example.org",
		password: "pässwörd€",
		salt:     "0badc0ffee",
		packed:   "70e4737377f67264ac20",
		x:        "3193377dcf0dde073e151cf5de7b2bf0606a75196ca9b02619b3a9e2ead4e4d3",
		A:        leapA,
		B:        "bc0b8e627b47fa553662193cbe350af8c7632fb6ff561f2784614c647db4bb9b35a673bc15a85d2890fb1de42c38c2e1375a0504a157a8dd0cec9238efbde8f7c5968169e5dab9cfaaa3cf2357f5c29982fa889443535ab057010bd0ce1c98603882f485920c7c82b0de88db995f86ac405d5a85bc0daf5c721c8e63ae9f9239",
		u:        "44998c823741bf4646a11c1297f5ea47fb1d7138261b2b2f047c0ff5df93536d",
		K:        "b54f387ad6c4913ee09e0266f92ac6de8ae1f6661dee8adb42449eb6bd54f33a",
		M1:       "e5c99067227542b42f47ff090adeb263945388f4fe3a6755683cf6ba496c904c",
		M2:       "4af5e4ad709f17160839630029dadcd1ce18698a1ea8d7cd6de810bed2fc9c24",
	},
	{
		name:     "rfc5054 2048",
		params:   srp.RFC5054Group2048,
		username: "carol",
		password: "correct horse",
		salt:     "a1b2c3d4e5f60718293a4b5c6d7e8f90",
		packed:   "636f727265637420686f727365",
		x:        "5ea6ac687fcef8ff4ced6580a12bbf16d4fe5c47488f53bc6fb67c4a591ca1dd",
		A:        "4b700f8d48e69c9aae40c684ac7c7c03121e2b7602eb4c3514804ccada0ed4019193a351ecc65a6f854ede91eb096e721b22d701c7adc64e9cedacd75f2e26bb2f5e45dd53dc8dbeafffe82aa49fca0573444691212537a73cf80e25039258205a7edf4749b30adaf25877c62fcd09d6613598bcd4baf2a9727a53706a278148992b2abb23ad5d512d269e16ca11bc0895b5a3b5ec4721cde40a8c39c796e94f0be86dbbeb33da7037018983921aba3f5053195d5ac1da4e567e3c0e75d9e0609f92e850657b2be4771f415b9cacc5c1ecedc30133bf6474f5022c6519d780760ca4d8d3b966b034bd73877c1b3b33f474b9c3c5299a1968f3e6cd3bfe84445a",
		B:        "6497cec28771e760678cd8520eab5cfb114ae743579fdc2b754ee290a0606352ae1b4908f6b92a0289e81949a0aff51e384cb30394b42af43dad47e904020a1d17d2d34b47ad3b107b93c1367a623a4e80b6a10f39460c9c5d32a5b266116cdc3499e806cb448a74b5d77870968b202c0d2b7571cefe42ec0b8e18d7c3629dc44fa43289d0cb16cdd6a6ff0524d0af10e7a650de63bd325795a0a4152cea15f49794e064983319334fb1e0ccdb6305e499e132ef9ce074ff9c950ba3cb90d65f8a572bc42183050f9e4cf748bf40049193e33737dcda2217ca68ffb83e67db64e5c29684321c0d43c5ae2153c3537694d2d08bc6d3c4fe19b4e640f0f92318f1",
		u:        "6adfebc17b2217aed2a21d0f402a232d1d585140aa565b4258b727643211ce62",
		K:        "8896f84c3d04b7cb96a27d7efd0403c5e5763ecbb3d116051189af1e686bd5a1",
		M1:       "ff0fd2a66ef209e1537a57ba62bdbae137055f43ea2894572ae3a7d0ee284c16",
		M2:       "b5d995478c8ac2b96f389eb81d028d82faea98fce52e5255c8b4e52c41020ba1",
	},
	{
		name:     "salt with leading zero",
		params:   srp.LEAP1024,
		username: "user159",
		password: "hunter2",
		salt:     "00c0ffee",
		packed:   "68756e74657232",
		x:        "0f5281971c5b25c0808fc47f9fd737c8a6fb518e16083c213658e1f221d21d7f",
		A:        leapA,
		B:        "12ffebe812e5f7e3f6ad84a2ce21b3d566a6639e3d3c20ccc2af7dc811928cac036a441178f5a5c519de985b083908667070b926885d4e7d89d7b64413e2fa1e55ffda91ee416151fa17b944136511aaa473802affd843b2b786b638456abda8f174135c225cdf3748b1be7f01d4483f5ea661aeef3649529f9fafca9c082558",
		u:        "6fb0558c7707e3e34dad7dde80465cb301e12710f699331a6003359a87c349f5",
		K:        "099339997b1e230f2bd62b85ab72f9943bb4d55ada8ee9dbfd7cfc05c6023ece",
		M1:       "e5e67656dfcd83db37c294ab2255ed71e149a9f1208a03e9122e6234d7c2358a",
		M2:       "5ba1edf8104aa189b93d94fcb309db50bf97f286e61eccf9e65222ddcc47af23",
	},
}

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
